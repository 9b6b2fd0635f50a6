package piece

import "math/rand/v2"

// ShuffledBag returns the seven archetypes in random order.
func ShuffledBag(rng *rand.Rand) []Archetype {
	bag := Archetypes
	rng.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})
	return bag[:]
}
