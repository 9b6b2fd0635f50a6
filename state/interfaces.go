// state/interfaces.go
package state

import "time"

// MatchContext is what match phases need from the match that owns them.
// It breaks the import cycle between match and state.
type MatchContext interface {
	GetID() string
	PlayerCount() int
	GetMaxPlayers() int
	ChangeState(newState State) error
	StartPlayfields()
	ResetPlayfields()
	StopPlayfields()
	ApplyCommand(playerID int, action string) error
	AddTimer(delay time.Duration, callback func()) int64
	RemoveTimer(id int64)
}
