package piece

// Archetype identifies one of the seven piece shapes.
type Archetype int

const (
	O Archetype = iota
	I
	Z
	S
	J
	L
	T
)

// Archetypes lists every archetype in bag order.
var Archetypes = [...]Archetype{O, I, Z, S, J, L, T}

var blueprints = [...][][]uint8{
	O: {
		{1, 1},
		{1, 1},
	},
	I: {
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	},
	Z: {
		{1, 1, 0},
		{0, 1, 1},
		{0, 0, 0},
	},
	S: {
		{0, 1, 1},
		{1, 1, 0},
		{0, 0, 0},
	},
	J: {
		{1, 0, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
	L: {
		{0, 0, 1},
		{1, 1, 1},
		{0, 0, 0},
	},
	T: {
		{0, 1, 0},
		{1, 1, 1},
		{0, 0, 0},
	},
}

var archetypeNames = [...]string{"O", "I", "Z", "S", "J", "L", "T"}

func (a Archetype) String() string {
	if a < O || a > T {
		return "?"
	}
	return archetypeNames[a]
}

// Size returns the side length of the archetype's bounding square.
func (a Archetype) Size() int {
	return len(blueprints[a])
}
