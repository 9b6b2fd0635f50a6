package piece

import "strconv"

// Tile is the content of a single grid cell. The numeric value is the tile
// code used on the wire.
type Tile uint8

const (
	None Tile = iota
	Red
	Blue
	Yellow
	Green
	Purple
)

// NumColors is the number of non-empty tiles.
const NumColors = 5

var tileNames = [...]string{"none", "red", "blue", "yellow", "green", "purple"}

// Valid reports whether t is a known tile code.
func (t Tile) Valid() bool {
	return t <= Purple
}

// Filled reports whether t is a colored tile.
func (t Tile) Filled() bool {
	return t != None
}

func (t Tile) String() string {
	if !t.Valid() {
		return "tile(" + strconv.Itoa(int(t)) + ")"
	}
	return tileNames[t]
}

// Board is the grid a piece is tested against and merged into.
type Board interface {
	Rows() int
	Cols() int
	At(row, col int) Tile
	Set(row, col int, t Tile)
}
