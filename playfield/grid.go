package playfield

import "github.com/wfunc/kolortris/piece"

const (
	Rows = 21
	Cols = 10
)

// Grid holds the locked tiles of a playfield, row 0 at the top. *Grid
// implements piece.Board.
type Grid [Rows][Cols]piece.Tile

func (g *Grid) Rows() int { return Rows }
func (g *Grid) Cols() int { return Cols }

func (g *Grid) At(row, col int) piece.Tile { return g[row][col] }

func (g *Grid) Set(row, col int, t piece.Tile) { g[row][col] = t }

func (g *Grid) rowFull(row int) bool {
	for _, t := range g[row] {
		if t == piece.None {
			return false
		}
	}
	return true
}

func (g *Grid) rowEmpty(row int) bool {
	for _, t := range g[row] {
		if t != piece.None {
			return false
		}
	}
	return true
}

// Empty reports whether no cell is occupied.
func (g *Grid) Empty() bool {
	for r := range Rows {
		if !g.rowEmpty(r) {
			return false
		}
	}
	return true
}
