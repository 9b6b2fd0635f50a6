package match

import (
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/playfield"
)

type commandFunc func(m *Match, pf *playfield.Playfield)

var commandTable = map[network.Command]commandFunc{
	network.MoveLeft:  func(_ *Match, pf *playfield.Playfield) { pf.MoveLeft() },
	network.MoveRight: func(_ *Match, pf *playfield.Playfield) { pf.MoveRight() },
	network.MoveDown:  func(_ *Match, pf *playfield.Playfield) { pf.MoveDown() },
	network.Rotate:    func(_ *Match, pf *playfield.Playfield) { pf.Rotate() },
	network.Hold:      func(_ *Match, pf *playfield.Playfield) { pf.Hold() },
	network.HardDrop:  func(_ *Match, pf *playfield.Playfield) { pf.HardDrop() },

	network.MoveUp:     func(_ *Match, pf *playfield.Playfield) { pf.MoveUp() },
	network.AddGarbage: func(_ *Match, pf *playfield.Playfield) { pf.AddGarbage(1) },
	network.SaveState:  (*Match).saveState,
	network.LoadState:  (*Match).loadState,
}

func (m *Match) saveState(pf *playfield.Playfield) {
	s := pf.Snapshot()
	m.saveMutex.Lock()
	m.saved = &s
	m.saveMutex.Unlock()
}

func (m *Match) loadState(pf *playfield.Playfield) {
	m.saveMutex.Lock()
	saved := m.saved
	m.saveMutex.Unlock()
	if saved != nil {
		pf.Restore(*saved)
	}
}

// HasSavedState reports whether the debug slot holds a state.
func (m *Match) HasSavedState() bool {
	m.saveMutex.Lock()
	defer m.saveMutex.Unlock()
	return m.saved != nil
}
