// internal/engine/command.go
package engine

import "github.com/google/uuid"

// Command is one tagged request against a game's state machine. Every
// variant carries a strongly-typed payload; dispatch happens in Game.Apply.
type Command interface {
	Name() string
	Actor() uuid.UUID
}

type base struct {
	PlayerID uuid.UUID `json:"player_id"`
}

func (b base) Actor() uuid.UUID { return b.PlayerID }

// StartCmd deals the tiers, flips the starting card, and opens the swap
// phase. Creator only; requires at least two players.
type StartCmd struct{ base }

// SwapCmd exchanges hand cards with untouched cards before locking in.
type SwapCmd struct {
	base
	Hand      []Card `json:"hand"`
	Untouched []Card `json:"untouched"`
}

// LockInCmd marks the player's swaps final. When every player has locked in,
// the game moves to the play phase with the turn at seat 0.
type LockInCmd struct{ base }

// PlayCardCmd plays a single card: from the hand by identity, or from an
// untouched slot by position once the deck and hand are empty.
type PlayCardCmd struct {
	base
	Card          Card `json:"card"`
	FromUntouched bool `json:"from_untouched"`
	Slot          int  `json:"slot"`
}

// PlayMultipleCmd plays a run of equal-rank cards in one move. Cards beyond
// the visible hand may come from the untouched tier once the deck is empty.
type PlayMultipleCmd struct {
	base
	Cards []Card `json:"cards"`
}

// PlayHiddenCmd reveals and plays a hidden slot. An illegal reveal stays
// face-up in the pile and flags the player's failed hidden play.
type PlayHiddenCmd struct {
	base
	Slot int `json:"slot"`
}

// TakeFromCenterCmd collects the played pile into the caller's hand in
// exchange for one chosen card, which becomes the new single-card pile.
type TakeFromCenterCmd struct {
	base
	Card Card `json:"card"`
}

// DrawCmd draws one random card from the deck into the caller's hand. It
// does not require the turn and does not advance it.
type DrawCmd struct{ base }

func (StartCmd) Name() string          { return "start" }
func (SwapCmd) Name() string           { return "swap" }
func (LockInCmd) Name() string         { return "lock_in" }
func (PlayCardCmd) Name() string       { return "play_card" }
func (PlayMultipleCmd) Name() string   { return "play_multiple" }
func (PlayHiddenCmd) Name() string     { return "play_hidden" }
func (TakeFromCenterCmd) Name() string { return "take_from_center" }
func (DrawCmd) Name() string           { return "draw" }

// NewStart and friends exist so callers outside the package can populate the
// embedded actor field.
func NewStart(player uuid.UUID) StartCmd   { return StartCmd{base{player}} }
func NewLockIn(player uuid.UUID) LockInCmd { return LockInCmd{base{player}} }
func NewDraw(player uuid.UUID) DrawCmd     { return DrawCmd{base{player}} }

func NewSwap(player uuid.UUID, hand, untouched []Card) SwapCmd {
	return SwapCmd{base: base{player}, Hand: hand, Untouched: untouched}
}

func NewPlayCard(player uuid.UUID, card Card) PlayCardCmd {
	return PlayCardCmd{base: base{player}, Card: card}
}

func NewPlayUntouched(player uuid.UUID, slot int) PlayCardCmd {
	return PlayCardCmd{base: base{player}, FromUntouched: true, Slot: slot}
}

func NewPlayMultiple(player uuid.UUID, cards []Card) PlayMultipleCmd {
	return PlayMultipleCmd{base: base{player}, Cards: cards}
}

func NewPlayHidden(player uuid.UUID, slot int) PlayHiddenCmd {
	return PlayHiddenCmd{base: base{player}, Slot: slot}
}

func NewTakeFromCenter(player uuid.UUID, card Card) TakeFromCenterCmd {
	return TakeFromCenterCmd{base: base{player}, Card: card}
}
