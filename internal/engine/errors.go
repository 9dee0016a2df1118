// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// FailureCode classifies a rejected command.
type FailureCode string

const (
	// NotFound means the room or player does not exist.
	NotFound FailureCode = "not_found"
	// Forbidden means the caller is not a member, not on turn, or attempted a
	// creator-only action.
	Forbidden FailureCode = "forbidden"
	// PhaseViolation means the action is invalid for the current game phase.
	PhaseViolation FailureCode = "phase_violation"
	// InvalidSelection means a card or slot was absent, counts mismatched,
	// ranks differed in a multi-play, or an index was out of range.
	InvalidSelection FailureCode = "invalid_selection"
	// ResourceExhausted means the deck was empty on draw, or a gated tier was
	// accessed too early.
	ResourceExhausted FailureCode = "resource_exhausted"
	// PersistenceFailure means the persistence collaborator rejected the
	// command's state delta. The in-memory state is unchanged.
	PersistenceFailure FailureCode = "persistence_failure"
)

// Failure is a typed, user-renderable command rejection. No failure
// terminates the room; the game remains playable after any rejection.
type Failure struct {
	Code FailureCode
	Msg  string
}

func (f *Failure) Error() string { return f.Msg }

func failf(code FailureCode, format string, args ...interface{}) *Failure {
	return &Failure{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// AsFailure extracts a *Failure from err, if it carries one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// ErrEmptyPile is returned by EffectiveTop when there is nothing played.
// Callers must special-case the empty-pile "anything is legal" rule first.
var ErrEmptyPile = errors.New("played pile is empty")
