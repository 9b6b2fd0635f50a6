package playfield

// Mode is the playfield's simulation state. Every tick runs exactly one
// advance step for the current mode.
type Mode uint8

const (
	// Normal: a piece is falling under gravity.
	Normal Mode = iota
	// Grounded: the piece rests on the stack and the lock delay is running.
	Grounded
	// Reload: the piece is locked and clears are animating.
	Reload
	// GameOver: the field overflowed and was wiped.
	GameOver
)

var modeNames = [...]string{"normal", "grounded", "reload", "gameover"}

func (m Mode) String() string {
	if int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// acceptsInput reports whether piece commands apply in this mode.
func (m Mode) acceptsInput() bool {
	return m == Normal || m == Grounded
}

func (p *Playfield) advance() {
	var next Mode
	switch p.mode {
	case Normal:
		next = p.advanceNormal()
	case Grounded:
		next = p.advanceGrounded()
	case Reload:
		next = p.advanceReload()
	case GameOver:
		next = Normal
	}
	if next != p.mode {
		p.enter(next)
	}
}

func (p *Playfield) advanceNormal() Mode {
	if p.current == nil {
		return Reload
	}
	p.ticks++
	if p.ticks >= p.cfg.GravityTicks {
		p.current.Move(&p.grid, 0, 1)
		p.ticks = 0
	}
	if p.current.IsGrounded(&p.grid) {
		return Grounded
	}
	return Normal
}

func (p *Playfield) advanceGrounded() Mode {
	if p.current == nil {
		return Reload
	}
	if !p.current.IsGrounded(&p.grid) {
		return Normal
	}
	p.ticks++
	if p.ticks >= p.cfg.LockDelayTicks {
		return Reload
	}
	return Grounded
}

func (p *Playfield) advanceReload() Mode {
	if p.sweep() {
		return Reload
	}
	// chains: tiles that fell may have formed new groups
	if p.markClears() > 0 {
		return Reload
	}
	if !p.spawnGarbage() {
		return GameOver
	}
	p.nextPiece()
	return Normal
}

// enter switches to m and runs its entry actions.
func (p *Playfield) enter(m Mode) {
	prev := p.mode
	p.mode, p.ticks = m, 0

	switch m {
	case Normal:
		if prev == Reload || prev == GameOver {
			p.holdEnabled = true
		}
	case Reload:
		if p.current != nil {
			merged := p.current.MergeInto(&p.grid)
			p.current = nil
			if !merged {
				p.enter(GameOver)
				return
			}
		}
		p.markClears()
	case GameOver:
		p.wipe()
	}
}
