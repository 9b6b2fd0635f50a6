package codec

import "github.com/wfunc/kolortris/playfield"

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseWaiting, PhasePlaying, PhaseFinished:
		return true
	}
	return false
}

type Player struct {
	ID        int
	Playfield playfield.State
}

// MatchState is the full match as sent to peers each round.
type MatchState struct {
	Phase   Phase
	Players []Player
}

// Player returns the entry for id.
func (m MatchState) Player(id int) (Player, bool) {
	for _, p := range m.Players {
		if p.ID == id {
			return p, true
		}
	}
	return Player{}, false
}

// EncodeMatch serializes m as
// matchStart,<phase>,<count>,(playerStart,<id>,<playfield>,playerEnd,)*matchEnd.
func EncodeMatch(m MatchState) string {
	e := newEncoder()
	e.token(markMatchStart)
	e.token(string(m.Phase))
	e.int(len(m.Players))
	for _, p := range m.Players {
		e.token(markPlayerStart)
		e.int(p.ID)
		e.playfield(p.Playfield)
		e.token(markPlayerEnd)
	}
	e.token(markMatchEnd)
	return e.b.String()
}

// DecodeMatch parses a record produced by EncodeMatch. Errors are
// *DecodeError.
func DecodeMatch(s string) (MatchState, error) {
	d := newDecoder(s)
	m, err := d.match()
	if err != nil {
		return MatchState{}, err
	}
	if err := d.end(); err != nil {
		return MatchState{}, err
	}
	return m, nil
}

func (d *decoder) match() (MatchState, error) {
	var m MatchState
	if err := d.expect(markMatchStart); err != nil {
		return m, err
	}
	phase, err := d.text("match phase")
	if err != nil {
		return m, err
	}
	m.Phase = Phase(phase)
	if !m.Phase.Valid() {
		d.pos--
		return m, d.fail(ErrBadValue, "match phase", nil)
	}
	count, err := d.ranged("player count", 0, maxPlayers)
	if err != nil {
		return m, err
	}
	m.Players = make([]Player, 0, count)
	for range count {
		if err := d.expect(markPlayerStart); err != nil {
			return m, err
		}
		id, err := d.int("player id")
		if err != nil {
			return m, err
		}
		pf, err := d.playfield()
		if err != nil {
			return m, err
		}
		if err := d.expect(markPlayerEnd); err != nil {
			return m, err
		}
		m.Players = append(m.Players, Player{ID: id, Playfield: pf})
	}
	if err := d.expect(markMatchEnd); err != nil {
		return m, err
	}
	return m, nil
}

// maxPlayers bounds the count field so a corrupt record cannot force a huge
// allocation.
const maxPlayers = 1024
