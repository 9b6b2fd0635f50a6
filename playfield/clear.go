package playfield

import "github.com/wfunc/kolortris/piece"

const (
	// fadeFlagged is the counter a cell gets when marked for clearing. Each
	// sweep lowers it by fadeStep and the cell empties at zero.
	fadeFlagged = 160
	fadeStep    = 20

	minGroup      = 4
	pointsPerCell = 10
)

type cell struct{ row, col int }

var neighbors = [...]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// markClears flags every same-color group of at least minGroup cells and
// every full row. It returns the number of newly flagged cells.
func (p *Playfield) markClears() int {
	var visited [Rows][Cols]bool
	var stack, group []cell
	flagged := 0

	for r := range Rows {
		for c := range Cols {
			t := p.grid[r][c]
			if t == piece.None || visited[r][c] {
				continue
			}
			group = group[:0]
			stack = append(stack[:0], cell{r, c})
			visited[r][c] = true
			for len(stack) > 0 {
				cur := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				group = append(group, cur)
				for _, d := range neighbors {
					nr, nc := cur.row+d.row, cur.col+d.col
					if nr < 0 || nr >= Rows || nc < 0 || nc >= Cols {
						continue
					}
					if visited[nr][nc] || p.grid[nr][nc] != t {
						continue
					}
					visited[nr][nc] = true
					stack = append(stack, cell{nr, nc})
				}
			}
			if len(group) >= minGroup {
				for _, g := range group {
					flagged += p.flag(g.row, g.col)
				}
			}
		}
	}

	for r := range Rows {
		if p.grid.rowFull(r) {
			for c := range Cols {
				flagged += p.flag(r, c)
			}
		}
	}
	return flagged
}

func (p *Playfield) flag(row, col int) int {
	if p.fade[row][col] != 0 {
		return 0
	}
	p.fade[row][col] = fadeFlagged
	return 1
}

// sweep advances the clear animation by one step. Cells whose counter hits
// zero are removed and score pointsPerCell each. It reports whether any cell
// was flagged when the step began.
func (p *Playfield) sweep() bool {
	var expired []cell
	active := false
	for r := range Rows {
		for c := range Cols {
			if p.fade[r][c] == 0 {
				continue
			}
			active = true
			p.fade[r][c] -= fadeStep
			if p.fade[r][c] == 0 {
				expired = append(expired, cell{r, c})
			}
		}
	}
	// top to bottom, so a removal never moves a cell still waiting in expired
	for _, e := range expired {
		p.removeCell(e.row, e.col)
		p.score += pointsPerCell
	}
	return active
}

// removeCell empties (row, col) and drops the column above it by one row.
// Clear counters move with their tiles.
func (p *Playfield) removeCell(row, col int) {
	for r := row; r > 0; r-- {
		p.grid[r][col] = p.grid[r-1][col]
		p.fade[r][col] = p.fade[r-1][col]
	}
	p.grid[0][col] = piece.None
	p.fade[0][col] = 0
}

// clearing reports whether any cell is flagged.
func (p *Playfield) clearing() bool {
	for r := range Rows {
		for c := range Cols {
			if p.fade[r][c] != 0 {
				return true
			}
		}
	}
	return false
}
