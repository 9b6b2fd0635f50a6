package state

import (
	"errors"
	"sync"
	"time"

	"github.com/wfunc/kolortris/logger"
)

// Phase ids. They double as the phase names in match snapshots.
const (
	IDWaiting  = "waiting"
	IDPlaying  = "playing"
	IDFinished = "finished"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleAction(playerID int, action string) error
}

var (
	// ErrTransitionNotAllowed is returned when a state transition is not allowed.
	ErrTransitionNotAllowed = errors.New("state transition not allowed")
	// ErrActionNotAllowed is returned when the current phase ignores player input.
	ErrActionNotAllowed = errors.New("action not allowed in this phase")
)

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// ChangeState runs OnExit and OnEnter under the machine lock, so neither may
// call ChangeState themselves.
func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 检查是否有转换条件
	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// 比赛阶段基础结构
type MatchStateBase struct {
	ID    string
	Match MatchContext
}

func (s *MatchStateBase) GetID() string {
	return s.ID
}

func (s *MatchStateBase) OnEnter() {
	// 默认实现
}

func (s *MatchStateBase) OnExit() {
	// 默认实现
}

func (s *MatchStateBase) OnUpdate() {
	// 默认实现
}

func (s *MatchStateBase) HandleAction(playerID int, action string) error {
	return ErrActionNotAllowed
}

// NewWaitingState creates the lobby phase. With autoStart set, the match
// starts on its own once it is full.
func NewWaitingState(match MatchContext, duration time.Duration, autoStart bool) *WaitingState {
	return &WaitingState{
		MatchStateBase: MatchStateBase{
			ID:    IDWaiting,
			Match: match,
		},
		duration:  duration,
		autoStart: autoStart,
	}
}

// 等待状态
type WaitingState struct {
	MatchStateBase
	duration  time.Duration
	autoStart bool
}

// OnEnter opens the lobby with cleared boards.
func (s *WaitingState) OnEnter() {
	s.Match.ResetPlayfields()
	logger.Log.Infof("match %s waiting for players", s.Match.GetID())
}

func (s *WaitingState) OnUpdate() {
	// 如果房间已满，立即开始游戏
	if s.autoStart && s.Match.PlayerCount() >= s.Match.GetMaxPlayers() {
		if err := s.Match.ChangeState(NewPlayingState(s.Match, s.duration)); err != nil {
			logger.Log.Warnf("match %s auto start: %v", s.Match.GetID(), err)
		}
	}
}
