package playfield

import "github.com/wfunc/kolortris/piece"

// spawnGarbage pushes every pending garbage line in from the bottom. All
// lines of one batch share a random empty column. If a line would push tiles
// out of the top row the field is wiped, the rest of the batch is dropped and
// spawnGarbage returns false.
func (p *Playfield) spawnGarbage() bool {
	n := p.garbage
	p.garbage = 0
	if n <= 0 {
		return true
	}

	safe := p.rng.IntN(Cols)
	for range n {
		if !p.grid.rowEmpty(0) {
			return false
		}
		below := p.grid[Rows-1]

		var row [Cols]piece.Tile
		for c := range Cols {
			if c == safe {
				continue
			}
			var left piece.Tile
			if c > 0 {
				left = row[c-1]
			}
			row[c] = p.garbageColor(below[c], left)
		}

		for r := 0; r < Rows-1; r++ {
			p.grid[r] = p.grid[r+1]
			p.fade[r] = p.fade[r+1]
		}
		p.grid[Rows-1] = row
		p.fade[Rows-1] = [Cols]uint8{}
	}
	return true
}

// garbageColor picks a random color different from both exclusions.
func (p *Playfield) garbageColor(exclude ...piece.Tile) piece.Tile {
	choices := make([]piece.Tile, 0, piece.NumColors)
	for t := piece.Red; t <= piece.Purple; t++ {
		skip := false
		for _, e := range exclude {
			if t == e {
				skip = true
				break
			}
		}
		if !skip {
			choices = append(choices, t)
		}
	}
	return choices[p.rng.IntN(len(choices))]
}
