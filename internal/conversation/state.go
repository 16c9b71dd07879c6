// Package conversation holds per-session dialogue state: the bounded
// turn window, any pending confirmation or clarification, and the last
// task touched for anaphora resolution. State survives across turns of
// a session but is never shared between sessions.
package conversation

import (
	"time"

	"salaatflow/internal/core"
	"salaatflow/internal/normalize"
)

// Turn is one completed exchange.
type Turn struct {
	Index int
	User  string
	Reply string
	At    time.Time
}

// PendingConfirmation holds a destructive action awaiting an explicit
// yes or no. ExpiresAt is the last turn index on which a confirmation
// is still accepted.
type PendingConfirmation struct {
	Action      core.Action
	TargetID    int64
	TargetTitle string
	ArmedAt     int
	ExpiresAt   int
}

// PendingClarification holds an action parked on a missing slot. The
// next utterance is first tried as an answer for that slot.
type PendingClarification struct {
	Held    core.Action
	Missing core.SlotKind
}

// State is the dialogue state of one session.
type State struct {
	SessionID  string
	Lang       normalize.Lang
	TurnIndex  int
	Turns      []Turn
	Pending    *PendingConfirmation
	Clarify    *PendingClarification
	LastTaskID int64

	window int
}

// ArmConfirmation parks a destructive action for the next ttlTurns
// turns. Arming replaces any previous pending action.
func (s *State) ArmConfirmation(act core.Action, targetID int64, targetTitle string, ttlTurns int) {
	s.Pending = &PendingConfirmation{
		Action:      act,
		TargetID:    targetID,
		TargetTitle: targetTitle,
		ArmedAt:     s.TurnIndex,
		ExpiresAt:   s.TurnIndex + ttlTurns,
	}
	s.Clarify = nil
}

// ArmClarification parks an incomplete action on its missing slot.
func (s *State) ArmClarification(held core.Action, missing core.SlotKind) {
	s.Clarify = &PendingClarification{Held: held, Missing: missing}
	s.Pending = nil
}

// ClearPending drops both pending structures.
func (s *State) ClearPending() {
	s.Pending = nil
	s.Clarify = nil
}

// ExpireStale drops a pending confirmation whose window has closed.
// It reports whether an expiry happened so the caller can log it.
// Clarifications do not expire; they are replaced by the next intent.
func (s *State) ExpireStale() bool {
	if s.Pending != nil && s.TurnIndex > s.Pending.ExpiresAt {
		s.Pending = nil
		return true
	}
	return false
}

// Record appends a completed turn and trims the window.
func (s *State) Record(user, reply string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Index: s.TurnIndex, User: user, Reply: reply, At: at})
	if s.window > 0 && len(s.Turns) > s.window {
		s.Turns = s.Turns[len(s.Turns)-s.window:]
	}
}
