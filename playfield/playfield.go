// Package playfield simulates a single player's board: the falling piece,
// hold slot, 7-bag queue, color and line clears, incoming garbage and score.
// Every exported method is safe for concurrent use.
package playfield

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wfunc/kolortris/piece"
	"github.com/wfunc/kolortris/timer"
)

const (
	MaxNameLength = 10
	DefaultName   = "player"

	// minQueue is the queue length below which a new bag is appended.
	minQueue = 7
)

type Config struct {
	TickInterval   time.Duration
	GravityTicks   int
	LockDelayTicks int
}

func DefaultConfig() Config {
	return Config{
		TickInterval:   33 * time.Millisecond,
		GravityTicks:   10,
		LockDelayTicks: 30,
	}
}

type Playfield struct {
	mutex sync.Mutex
	cfg   Config
	rng   *rand.Rand
	loop  *timer.Loop

	name    string
	score   int
	garbage int

	grid Grid
	fade [Rows][Cols]uint8

	current     *piece.Piece
	held        *piece.Piece
	queue       []*piece.Piece
	holdEnabled bool

	mode  Mode
	ticks int
}

// New creates a playfield with a fresh queue and the first piece in play.
func New(name string, cfg Config) *Playfield {
	return NewWithRand(name, cfg, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewWithRand is New with an explicit random source.
func NewWithRand(name string, cfg Config, rng *rand.Rand) *Playfield {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.GravityTicks <= 0 {
		cfg.GravityTicks = def.GravityTicks
	}
	if cfg.LockDelayTicks <= 0 {
		cfg.LockDelayTicks = def.LockDelayTicks
	}

	p := &Playfield{
		cfg:         cfg,
		rng:         rng,
		name:        SanitizeName(name),
		holdEnabled: true,
		mode:        Normal,
	}
	p.loop = timer.NewLoop(cfg.TickInterval, p.Tick)
	p.refillQueue()
	p.nextPiece()
	return p
}

// SanitizeName strips commas and surrounding space and truncates to
// MaxNameLength runes. An empty result becomes DefaultName.
func SanitizeName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, ",", ""))
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	if name == "" {
		return DefaultName
	}
	return name
}

// Start launches the tick worker. It is a no-op if already running.
func (p *Playfield) Start() {
	p.loop.Start()
}

// Stop halts the tick worker. No tick runs after Stop returns.
func (p *Playfield) Stop() {
	p.loop.Stop()
}

func (p *Playfield) Running() bool {
	return p.loop.Running()
}

// Tick advances the state machine by one step.
func (p *Playfield) Tick() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.advance()
}

func (p *Playfield) refillQueue() {
	for len(p.queue) < minQueue {
		for _, a := range piece.ShuffledBag(p.rng) {
			p.queue = append(p.queue, piece.New(a, Cols, p.rng))
		}
	}
}

func (p *Playfield) nextPiece() {
	p.current = p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.refillQueue()
}

// wipe empties the grid and drops the active piece.
func (p *Playfield) wipe() {
	p.grid = Grid{}
	p.fade = [Rows][Cols]uint8{}
	p.current = nil
}

// active returns the piece that input commands may act on.
func (p *Playfield) active() *piece.Piece {
	if !p.mode.acceptsInput() {
		return nil
	}
	return p.current
}

func (p *Playfield) move(dx, dy int) bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	c := p.active()
	if c == nil {
		return false
	}
	return c.Move(&p.grid, dx, dy)
}

func (p *Playfield) MoveLeft() bool  { return p.move(-1, 0) }
func (p *Playfield) MoveRight() bool { return p.move(1, 0) }
func (p *Playfield) MoveDown() bool  { return p.move(0, 1) }

// MoveUp is a debugging aid.
func (p *Playfield) MoveUp() bool { return p.move(0, -1) }

func (p *Playfield) Rotate() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	c := p.active()
	if c == nil {
		return false
	}
	return c.Rotate(&p.grid)
}

// HardDrop drops the piece to the ground and locks it immediately.
func (p *Playfield) HardDrop() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	c := p.active()
	if c == nil {
		return false
	}
	c.DropToGround(&p.grid)
	p.enter(Reload)
	return true
}

// Hold puts the active piece aside. The first hold draws the next piece from
// the queue, later holds swap with the held piece. Only one hold is allowed
// per locked piece.
func (p *Playfield) Hold() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	c := p.active()
	if c == nil || !p.holdEnabled {
		return false
	}
	if p.held == nil {
		p.held = c
		p.nextPiece()
	} else {
		p.held, p.current = c, p.held
		p.current.ResetToSpawn(Cols)
	}
	p.held.ResetToSpawn(Cols)
	p.holdEnabled = false
	p.mode, p.ticks = Normal, 0
	return true
}

// AddGarbage queues n lines to be injected at the next lock. n <= 0 is
// ignored.
func (p *Playfield) AddGarbage(n int) {
	if n <= 0 {
		return
	}
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.garbage += n
}

func (p *Playfield) PendingGarbage() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.garbage
}

func (p *Playfield) Score() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.score
}

func (p *Playfield) Name() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.name
}

func (p *Playfield) SetName(name string) {
	name = SanitizeName(name)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.name = name
}

func (p *Playfield) Mode() Mode {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.mode
}

func (p *Playfield) HoldEnabled() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.holdEnabled
}

// Clearing reports whether a clear animation is in progress.
func (p *Playfield) Clearing() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.clearing()
}

// Grid returns a copy of the locked tiles.
func (p *Playfield) Grid() Grid {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.grid
}

// Current returns a copy of the active piece, or nil.
func (p *Playfield) Current() *piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current.Clone()
}

// Held returns a copy of the held piece, or nil.
func (p *Playfield) Held() *piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.held.Clone()
}

// Queue returns copies of the upcoming pieces, next first.
func (p *Playfield) Queue() []*piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return clonePieces(p.queue)
}

// Ghost returns where the active piece would land, or nil.
func (p *Playfield) Ghost() *piece.Piece {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.current == nil {
		return nil
	}
	return p.current.Ghost(&p.grid)
}

func clonePieces(in []*piece.Piece) []*piece.Piece {
	out := make([]*piece.Piece, len(in))
	for i, pc := range in {
		out[i] = pc.Clone()
	}
	return out
}

// TakeGarbage returns the pending garbage and clears it. It is used when the
// field is simulated elsewhere and the lines are forwarded instead.
func (p *Playfield) TakeGarbage() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	n := p.garbage
	p.garbage = 0
	return n
}
