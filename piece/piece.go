// Package piece implements falling piece geometry: shapes, clockwise rotation
// with wall kicks, and placement tests against a Board.
package piece

import (
	"math/rand/v2"
)

// Piece is a colored shape inside a square bounding box. X and Y locate the
// top-left corner of the box on the board.
type Piece struct {
	Size     int
	Cells    [][]Tile
	X, Y     int
	Rotation Rotation
}

// New creates a piece of archetype a at the spawn position of a board with
// cols columns. Every occupied cell gets an independent random color.
func New(a Archetype, cols int, rng *rand.Rand) *Piece {
	bp := blueprints[a]
	size := len(bp)
	cells := make([][]Tile, size)
	for i := range size {
		cells[i] = make([]Tile, size)
		for j := range size {
			if bp[i][j] != 0 {
				cells[i][j] = Tile(rng.IntN(NumColors) + 1)
			}
		}
	}
	p := &Piece{Size: size, Cells: cells, Rotation: Spawn}
	p.X, p.Y = SpawnPosition(size, cols)
	return p
}

// SpawnPosition returns the top-center position for a piece of the given size.
func SpawnPosition(size, cols int) (x, y int) {
	return cols/2 - size/2, 0
}

// Clone returns a deep copy of p.
func (p *Piece) Clone() *Piece {
	if p == nil {
		return nil
	}
	c := *p
	c.Cells = copyCells(p.Cells)
	return &c
}

func copyCells(cells [][]Tile) [][]Tile {
	out := make([][]Tile, len(cells))
	for i, row := range cells {
		out[i] = append([]Tile(nil), row...)
	}
	return out
}

func rotateClockwise(cells [][]Tile) [][]Tile {
	size := len(cells)
	rotated := make([][]Tile, size)
	for i := range size {
		rotated[i] = make([]Tile, size)
		for j := range size {
			rotated[i][j] = cells[size-j-1][i]
		}
	}
	return rotated
}

func (p *Piece) shape(steps int) [][]Tile {
	cells := p.Cells
	for range ((steps % 4) + 4) % 4 {
		cells = rotateClockwise(cells)
	}
	return cells
}

// IsValidPosition reports whether the piece, rotated clockwise by steps
// quarter turns and translated by (dx, dy), lies entirely inside b and only
// over empty cells.
func (p *Piece) IsValidPosition(b Board, dx, dy, steps int) bool {
	cells := p.shape(steps)
	x, y := p.X+dx, p.Y+dy
	rows, cols := b.Rows(), b.Cols()
	for i, row := range cells {
		for j, t := range row {
			if t == None {
				continue
			}
			r, c := y+i, x+j
			if r < 0 || r >= rows || c < 0 || c >= cols {
				return false
			}
			if b.At(r, c) != None {
				return false
			}
		}
	}
	return true
}

// Move translates the piece if the target is valid. It reports whether the
// piece moved.
func (p *Piece) Move(b Board, dx, dy int) bool {
	if !p.IsValidPosition(b, dx, dy, 0) {
		return false
	}
	p.X += dx
	p.Y += dy
	return true
}

// Rotate turns the piece clockwise, trying the kick offsets for its size and
// current phase in order. It reports whether a rotation was applied.
func (p *Piece) Rotate(b Board) bool {
	for _, k := range kicksFor(p.Size, p.Rotation) {
		if p.IsValidPosition(b, k.dx, k.dy, 1) {
			p.Cells = rotateClockwise(p.Cells)
			p.X += k.dx
			p.Y += k.dy
			p.Rotation = p.Rotation.Next()
			return true
		}
	}
	return false
}

// IsGrounded reports whether the piece cannot move one row down.
func (p *Piece) IsGrounded(b Board) bool {
	return !p.IsValidPosition(b, 0, 1, 0)
}

// DropToGround moves the piece down until it is grounded and returns the
// number of rows travelled.
func (p *Piece) DropToGround(b Board) int {
	n := 0
	for p.Move(b, 0, 1) {
		n++
	}
	return n
}

// Ghost returns a copy of the piece dropped to the ground.
func (p *Piece) Ghost(b Board) *Piece {
	g := p.Clone()
	g.DropToGround(b)
	return g
}

// MergeInto writes the piece's cells into b. It returns false without
// touching b when the current position is invalid.
func (p *Piece) MergeInto(b Board) bool {
	if !p.IsValidPosition(b, 0, 0, 0) {
		return false
	}
	for i, row := range p.Cells {
		for j, t := range row {
			if t != None {
				b.Set(p.Y+i, p.X+j, t)
			}
		}
	}
	return true
}

// ResetToSpawn turns the piece back to its spawn phase and moves it to the
// spawn position of a board with cols columns.
func (p *Piece) ResetToSpawn(cols int) {
	for p.Rotation != Spawn {
		p.Cells = rotateClockwise(p.Cells)
		p.Rotation = p.Rotation.Next()
	}
	p.X, p.Y = SpawnPosition(p.Size, cols)
}

// Blocks returns the board coordinates and colors of every occupied cell.
func (p *Piece) Blocks() []Block {
	var out []Block
	for i, row := range p.Cells {
		for j, t := range row {
			if t != None {
				out = append(out, Block{Row: p.Y + i, Col: p.X + j, Tile: t})
			}
		}
	}
	return out
}

// Block is one occupied cell of a piece in board coordinates.
type Block struct {
	Row, Col int
	Tile     Tile
}

// Equal reports whether two pieces have the same shape, colors, position and
// phase.
func (p *Piece) Equal(o *Piece) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Size != o.Size || p.X != o.X || p.Y != o.Y || p.Rotation != o.Rotation {
		return false
	}
	if len(p.Cells) != len(o.Cells) {
		return false
	}
	for i := range p.Cells {
		if len(p.Cells[i]) != len(o.Cells[i]) {
			return false
		}
		for j := range p.Cells[i] {
			if p.Cells[i][j] != o.Cells[i][j] {
				return false
			}
		}
	}
	return true
}
