package playfield

import "github.com/wfunc/kolortris/piece"

// State is the serializable part of a playfield.
type State struct {
	Name    string
	Score   int
	Grid    Grid
	Current *piece.Piece
	Held    *piece.Piece
	Queue   []*piece.Piece
}

// Snapshot returns a deep copy of the playfield's serializable state.
func (p *Playfield) Snapshot() State {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return State{
		Name:    p.name,
		Score:   p.score,
		Grid:    p.grid,
		Current: p.current.Clone(),
		Held:    p.held.Clone(),
		Queue:   clonePieces(p.queue),
	}
}

// Restore replaces the playfield's contents with s. Pending clears are
// dropped, the machine restarts in Normal and the queue is topped up if s
// carries fewer than seven pieces.
func (p *Playfield) Restore(s State) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.name = SanitizeName(s.Name)
	p.score = s.Score
	p.grid = s.Grid
	p.fade = [Rows][Cols]uint8{}
	p.current = s.Current.Clone()
	p.held = s.Held.Clone()
	p.queue = clonePieces(s.Queue)
	p.refillQueue()
	p.holdEnabled = true
	p.mode, p.ticks = Normal, 0
}

// Reset clears the field for a new match: empty grid, zero score, no
// pending garbage, no held piece and a fresh queue. The name is kept.
func (p *Playfield) Reset() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.wipe()
	p.score, p.garbage = 0, 0
	p.held = nil
	p.queue = nil
	p.refillQueue()
	p.nextPiece()
	p.holdEnabled = true
	p.mode, p.ticks = Normal, 0
}
