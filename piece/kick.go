package piece

// Rotation is the rotation phase of a piece relative to its spawn orientation.
type Rotation uint8

const (
	Spawn Rotation = iota
	CW
	Flip
	CCW
)

// Valid reports whether r is one of the four phases.
func (r Rotation) Valid() bool {
	return r <= CCW
}

// Next returns the phase after one clockwise quarter turn.
func (r Rotation) Next() Rotation {
	return (r + 1) % 4
}

func (r Rotation) String() string {
	switch r {
	case Spawn:
		return "spawn"
	case CW:
		return "cw"
	case Flip:
		return "flip"
	case CCW:
		return "ccw"
	}
	return "invalid"
}

type offset struct {
	dx, dy int
}

// Wall kick candidates tried in order when rotating clockwise out of a phase.
var (
	kicksSize2 = []offset{{0, 0}}

	kicksSize3 = [4][5]offset{
		Spawn: {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
		CW:    {{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		Flip:  {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
		CCW:   {{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}},
	}

	kicksSize4 = [4][5]offset{
		Spawn: {{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
		CW:    {{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
		Flip:  {{0, 0}, {2, 0}, {-1, 0}, {2, -1}, {-1, 2}},
		CCW:   {{0, 0}, {1, 0}, {-2, 0}, {1, 2}, {-2, -1}},
	}
)

func kicksFor(size int, from Rotation) []offset {
	switch size {
	case 3:
		return kicksSize3[from][:]
	case 4:
		return kicksSize4[from][:]
	default:
		return kicksSize2
	}
}
