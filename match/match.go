// Package match holds the host's authoritative game: one playfield per
// connected player, the phase machine, score driven garbage and the
// snapshot sent to peers every round.
package match

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/kamstrup/intmap"

	"github.com/wfunc/kolortris/codec"
	"github.com/wfunc/kolortris/logger"
	"github.com/wfunc/kolortris/network"
	"github.com/wfunc/kolortris/playfield"
	"github.com/wfunc/kolortris/state"
	"github.com/wfunc/kolortris/timer"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrMatchFull      = errors.New("match is full")
	ErrMatchStarted   = errors.New("match already started")
	ErrWrongPhase     = errors.New("operation not allowed in this phase")
	ErrNoPlayers      = errors.New("match has no players")
	ErrDebugDisabled  = errors.New("debug commands are disabled")
)

type Config struct {
	MaxPlayers       int
	GarbageMilestone int
	Playfield        playfield.Config
	Duration         time.Duration
	AutoStart        bool
	Debug            bool
	// Simulate runs the playfield tick loops on the host. It is false when
	// every peer simulates its own field.
	Simulate bool
	// UpdateInterval drives the phase machine.
	UpdateInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:       8,
		GarbageMilestone: 150,
		Playfield:        playfield.DefaultConfig(),
		Simulate:         true,
		UpdateInterval:   100 * time.Millisecond,
	}
}

type Player struct {
	ID       int
	Field    *playfield.Playfield
	JoinedAt time.Time
}

// Match 是一局游戏的核心结构
type Match struct {
	ID  string
	cfg Config

	players   *intmap.Map[int, *Player]
	order     []int // sorted ids
	accepting bool
	running   bool
	mutex     sync.RWMutex

	garbage      *GarbageTracker
	StateMachine state.StateMachine
	scheduler    *timer.Scheduler
	loop         *timer.Loop

	saved     *playfield.State
	saveMutex sync.Mutex
}

func New(id string, cfg Config) *Match {
	def := DefaultConfig()
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = def.MaxPlayers
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = def.UpdateInterval
	}

	m := &Match{
		ID:        id,
		cfg:       cfg,
		players:   intmap.New[int, *Player](cfg.MaxPlayers),
		accepting: true,
		garbage:   NewGarbageTracker(cfg.GarbageMilestone),
		scheduler: timer.NewScheduler(50 * time.Millisecond),
	}

	waiting := state.NewWaitingState(m, cfg.Duration, cfg.AutoStart)
	playing := state.NewPlayingState(m, 0)
	finished := state.NewFinishedState(m)
	sm := state.NewBaseStateMachine(waiting)

	// conditions run under the machine lock, so each phase is entered once
	refuse := func() bool { return false }
	sm.AddTransition(waiting, playing, func() bool { return m.PlayerCount() > 0 })
	sm.AddTransition(waiting, waiting, refuse)
	sm.AddTransition(waiting, finished, refuse)
	sm.AddTransition(playing, playing, refuse)
	sm.AddTransition(playing, waiting, refuse)
	sm.AddTransition(finished, finished, refuse)
	sm.AddTransition(finished, playing, refuse)
	m.StateMachine = sm

	// 启动比赛心跳
	m.loop = timer.NewLoop(cfg.UpdateInterval, m.Update)
	m.loop.Start()
	return m
}

// --- state.MatchContext ---

func (m *Match) GetID() string {
	return m.ID
}

func (m *Match) GetMaxPlayers() int {
	return m.cfg.MaxPlayers
}

func (m *Match) PlayerCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.players.Len()
}

func (m *Match) ChangeState(newState state.State) error {
	return m.StateMachine.ChangeState(newState)
}

// StartPlayfields closes the lobby and, when the host simulates, starts
// every tick loop.
func (m *Match) StartPlayfields() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.accepting = false
	m.running = m.cfg.Simulate
	if !m.running {
		return
	}
	for _, id := range m.order {
		if p, ok := m.players.Get(id); ok {
			p.Field.Start()
		}
	}
}

// ResetPlayfields reopens the lobby and clears every board. Fields are
// reset in place so callers holding a *Player never see a stale board.
func (m *Match) ResetPlayfields() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.accepting = true
	for _, id := range m.order {
		if p, ok := m.players.Get(id); ok {
			p.Field.Reset()
			m.garbage.Track(id, 0)
		}
	}
}

func (m *Match) StopPlayfields() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.running = false
	for _, id := range m.order {
		if p, ok := m.players.Get(id); ok {
			p.Field.Stop()
		}
	}
}

// ApplyCommand runs one entry of the command table against id's field.
func (m *Match) ApplyCommand(playerID int, action string) error {
	cmd := network.Command(action)
	fn, ok := commandTable[cmd]
	if !ok {
		return fmt.Errorf("%w: %q", network.ErrUnknownCommand, action)
	}
	if cmd.Debug() && !m.cfg.Debug {
		return ErrDebugDisabled
	}
	p, ok := m.Player(playerID)
	if !ok {
		return ErrPlayerNotFound
	}
	fn(m, p.Field)
	return nil
}

func (m *Match) AddTimer(delay time.Duration, callback func()) int64 {
	return m.scheduler.AddTimer(delay, 0, callback)
}

func (m *Match) RemoveTimer(id int64) {
	m.scheduler.RemoveTimer(id)
}

// --- players ---

// Join adds a player. requested is the id the peer asked for; zero or an id
// already taken gets the lowest free id instead.
func (m *Match) Join(requested int, name string) (int, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.accepting {
		return 0, ErrMatchStarted
	}
	if m.players.Len() >= m.cfg.MaxPlayers {
		return 0, ErrMatchFull
	}

	id := requested
	if _, taken := m.players.Get(id); id <= 0 || taken {
		id = m.freeID()
	}

	p := &Player{
		ID:       id,
		Field:    playfield.New(name, m.cfg.Playfield),
		JoinedAt: time.Now(),
	}
	m.players.Put(id, p)
	i, _ := slices.BinarySearch(m.order, id)
	m.order = slices.Insert(m.order, i, id)
	m.garbage.Track(id, 0)

	logger.Log.Infof("player %d (%s) joined match %s", id, p.Field.Name(), m.ID)
	return id, nil
}

func (m *Match) freeID() int {
	id := 1
	for _, taken := range m.order {
		if taken != id {
			break
		}
		id++
	}
	return id
}

// Leave removes a player and stops its field.
func (m *Match) Leave(id int) bool {
	m.mutex.Lock()
	p, ok := m.players.Get(id)
	if ok {
		m.players.Del(id)
		if i, found := slices.BinarySearch(m.order, id); found {
			m.order = slices.Delete(m.order, i, i+1)
		}
	}
	m.mutex.Unlock()

	if !ok {
		return false
	}
	p.Field.Stop()
	m.garbage.Forget(id)
	logger.Log.Infof("player %d left match %s", id, m.ID)
	return true
}

func (m *Match) Player(id int) (*Player, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.players.Get(id)
}

// Players returns every player in id order.
func (m *Match) Players() []*Player {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	out := make([]*Player, 0, len(m.order))
	for _, id := range m.order {
		if p, ok := m.players.Get(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func (m *Match) SetName(id int, name string) error {
	p, ok := m.Player(id)
	if !ok {
		return ErrPlayerNotFound
	}
	p.Field.SetName(name)
	return nil
}

// Accepting reports whether new players may join.
func (m *Match) Accepting() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.accepting
}

// Running reports whether the host is ticking the playfields.
func (m *Match) Running() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.running
}

// --- phases ---

func (m *Match) Phase() codec.Phase {
	return codec.Phase(m.StateMachine.GetCurrentState().GetID())
}

// Start moves the match from the lobby to play.
func (m *Match) Start() error {
	err := m.ChangeState(state.NewPlayingState(m, m.cfg.Duration))
	if errors.Is(err, state.ErrTransitionNotAllowed) {
		if m.Phase() == codec.PhaseWaiting {
			return ErrNoPlayers
		}
		return ErrWrongPhase
	}
	return err
}

// End stops play and freezes the boards.
func (m *Match) End() error {
	return m.transition(state.NewFinishedState(m))
}

// Reset returns a finished match to the lobby. Entering the lobby clears
// every board in place.
func (m *Match) Reset() error {
	return m.transition(state.NewWaitingState(m, m.cfg.Duration, m.cfg.AutoStart))
}

func (m *Match) transition(next state.State) error {
	err := m.ChangeState(next)
	if errors.Is(err, state.ErrTransitionNotAllowed) {
		return ErrWrongPhase
	}
	return err
}

// IsGameOver reports whether the match has finished.
func (m *Match) IsGameOver() bool {
	return m.Phase() == codec.PhaseFinished
}

// Apply routes a player command through the current phase.
func (m *Match) Apply(id int, cmd network.Command) error {
	return m.StateMachine.GetCurrentState().HandleAction(id, string(cmd))
}

// Update 由主循环调用，驱动状态机更新
func (m *Match) Update() {
	if current := m.StateMachine.GetCurrentState(); current != nil {
		current.OnUpdate()
	}
}

// --- garbage ---

// ApplyGarbage runs one garbage round: every score is read first, then each
// player's new lines are queued on every other player. It returns the total
// number of lines queued.
func (m *Match) ApplyGarbage() int {
	players := m.Players()
	scores := make(map[int]int, len(players))
	for _, p := range players {
		scores[p.ID] = p.Field.Score()
	}

	sent := m.garbage.Round(scores)
	total := 0
	for from, lines := range sent {
		total += m.distribute(players, from, lines)
	}
	return total
}

// SendGarbage queues lines from one player on every other player. Peers
// that simulate their own field report their milestones through it.
func (m *Match) SendGarbage(from, lines int) int {
	if lines <= 0 {
		return 0
	}
	return m.distribute(m.Players(), from, lines)
}

func (m *Match) distribute(players []*Player, from, lines int) int {
	total := 0
	for _, p := range players {
		if p.ID == from {
			continue
		}
		p.Field.AddGarbage(lines)
		total += lines
	}
	return total
}

// TakeGarbage drains the garbage pending on id's field so it can be
// forwarded to the peer that simulates it.
func (m *Match) TakeGarbage(id int) int {
	p, ok := m.Player(id)
	if !ok {
		return 0
	}
	return p.Field.TakeGarbage()
}

// Restore replaces id's field with a state uploaded by its peer.
func (m *Match) Restore(id int, s playfield.State) error {
	p, ok := m.Player(id)
	if !ok {
		return ErrPlayerNotFound
	}
	p.Field.Restore(s)
	return nil
}

// --- snapshots ---

func (m *Match) Snapshot() codec.MatchState {
	players := m.Players()
	ms := codec.MatchState{
		Phase:   m.Phase(),
		Players: make([]codec.Player, 0, len(players)),
	}
	for _, p := range players {
		ms.Players = append(ms.Players, codec.Player{ID: p.ID, Playfield: p.Field.Snapshot()})
	}
	return ms
}

// Encode returns the match record sent to peers.
func (m *Match) Encode() string {
	return codec.EncodeMatch(m.Snapshot())
}

type Score struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Scoreboard lists every player by score, highest first. Ties keep id order.
func (m *Match) Scoreboard() []Score {
	players := m.Players()
	out := make([]Score, 0, len(players))
	for _, p := range players {
		out = append(out, Score{ID: p.ID, Name: p.Field.Name(), Score: p.Field.Score()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Close stops the match loop, the scheduler and every playfield.
func (m *Match) Close() {
	m.loop.Stop()
	m.scheduler.Stop()
	m.StopPlayfields()
}
