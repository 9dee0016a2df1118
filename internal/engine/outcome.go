// internal/engine/outcome.go
package engine

import "github.com/google/uuid"

// Outcome describes what a successful command changed. The engine returns it
// to the caller; a separate relay decides who to notify and how.
type Outcome struct {
	Command  string    `json:"command"`
	PlayerID uuid.UUID `json:"player_id"`

	// Played holds the cards appended to the pile by this command.
	Played []Card `json:"played,omitempty"`

	// Burn is set when the play cleared the pile into the discard.
	Burn bool `json:"burn,omitempty"`

	// GoAgain is set when the actor keeps the turn.
	GoAgain bool `json:"go_again,omitempty"`

	// Revealed is the card turned over by an untouched or hidden play.
	Revealed *Card `json:"revealed,omitempty"`

	// Playable reports whether a hidden reveal was legal. A false value means
	// the card now sits face-up in the pile and the player's win is blocked.
	Playable bool `json:"playable,omitempty"`

	// Drawn is the card taken from the deck by a draw command. It is private
	// to the actor; the relay must not forward it to other members.
	Drawn *Card `json:"drawn,omitempty"`

	// EveryoneReady is set by the lock-in that moved the game to the play
	// phase.
	EveryoneReady bool `json:"everyone_ready,omitempty"`

	// Winner is set when this command ended the game.
	Winner *uuid.UUID `json:"winner,omitempty"`
}
