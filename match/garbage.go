package match

import (
	"sort"
	"sync"
)

// GarbageTracker converts score progress into garbage lines. Each player
// sends one line for every milestone points scored since the last milestone
// it passed.
type GarbageTracker struct {
	milestone int
	passed    map[int]int
	mutex     sync.Mutex
}

func NewGarbageTracker(milestone int) *GarbageTracker {
	if milestone <= 0 {
		milestone = 150
	}
	return &GarbageTracker{
		milestone: milestone,
		passed:    make(map[int]int),
	}
}

// Track starts tracking id from score.
func (g *GarbageTracker) Track(id, score int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.passed[id] = score / g.milestone * g.milestone
}

func (g *GarbageTracker) Forget(id int) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	delete(g.passed, id)
}

// Round takes one snapshot of every score and returns the lines each player
// sends. Untracked ids are tracked from zero.
func (g *GarbageTracker) Round(scores map[int]int) map[int]int {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	sent := make(map[int]int)
	for _, id := range ids {
		score := scores[id]
		passed := g.passed[id]
		if score < passed {
			// score went backwards (debug load); rebase
			g.passed[id] = score / g.milestone * g.milestone
			continue
		}
		lines := (score - passed) / g.milestone
		if lines > 0 {
			g.passed[id] = passed + lines*g.milestone
			sent[id] = lines
		}
	}
	return sent
}

// Passed returns the last milestone id passed.
func (g *GarbageTracker) Passed(id int) int {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.passed[id]
}
