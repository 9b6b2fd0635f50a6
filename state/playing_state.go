package state

import (
	"errors"
	"time"

	"github.com/wfunc/kolortris/logger"
)

// PlayingState 游戏进行状态
type PlayingState struct {
	MatchStateBase
	GameDuration time.Duration
	StartedAt    time.Time
	TimerID      int64
}

// NewPlayingState creates the running phase. A positive duration ends the
// match automatically.
func NewPlayingState(match MatchContext, duration time.Duration) *PlayingState {
	return &PlayingState{
		MatchStateBase: MatchStateBase{
			ID:    IDPlaying,
			Match: match,
		},
		GameDuration: duration,
	}
}

func (s *PlayingState) OnEnter() {
	logger.Log.Infof("match %s started with %d players, duration %v", s.Match.GetID(), s.Match.PlayerCount(), s.GameDuration)
	s.StartedAt = time.Now()
	s.Match.StartPlayfields()

	if s.GameDuration > 0 {
		match := s.Match
		s.TimerID = match.AddTimer(s.GameDuration, func() {
			// an earlier End already finished the match
			if err := match.ChangeState(NewFinishedState(match)); err != nil && !errors.Is(err, ErrTransitionNotAllowed) {
				logger.Log.Warnf("match %s deadline: %v", match.GetID(), err)
			}
		})
	}
}

func (s *PlayingState) OnExit() {
	if s.TimerID != 0 {
		s.Match.RemoveTimer(s.TimerID)
		s.TimerID = 0
	}
	s.Match.StopPlayfields()
	logger.Log.Infof("match %s stopped after %v", s.Match.GetID(), time.Since(s.StartedAt).Round(time.Millisecond))
}

// Remaining returns the time left, or zero for an open ended match.
func (s *PlayingState) Remaining() time.Duration {
	if s.GameDuration <= 0 {
		return 0
	}
	left := s.GameDuration - time.Since(s.StartedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (s *PlayingState) HandleAction(playerID int, action string) error {
	return s.Match.ApplyCommand(playerID, action)
}

func NewFinishedState(match MatchContext) *FinishedState {
	return &FinishedState{
		MatchStateBase: MatchStateBase{
			ID:    IDFinished,
			Match: match,
		},
	}
}

// FinishedState holds the final board until the match is reset.
type FinishedState struct {
	MatchStateBase
}

func (s *FinishedState) OnEnter() {
	logger.Log.Infof("match %s finished", s.Match.GetID())
}
