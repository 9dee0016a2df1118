// internal/engine/tier.go
package engine

import "github.com/google/uuid"

// Slot is one fixed position in the untouched or hidden tier. A consumed slot
// keeps its place so positions stay stable for the whole game; there is no
// sentinel card value.
type Slot struct {
	Card     Card `json:"card"`
	Consumed bool `json:"consumed"`
}

// LiveSlot returns an unconsumed slot holding c.
func LiveSlot(c Card) Slot { return Slot{Card: c} }

// MaxSwapPairs is the most hand/untouched pairs a player may exchange before
// locking in.
const MaxSwapPairs = 3

// Player holds one player's three card tiers and swap/win bookkeeping.
// Identity is stable for the room's lifetime; seat order is the turn order.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`

	Hand      []Card `json:"hand"`
	Untouched []Slot `json:"untouched"`
	Hidden    []Slot `json:"hidden"`

	Swapped bool `json:"swapped"`

	// FailedHiddenPlay is set when a revealed hidden card was illegal and now
	// sits face-up in the played pile. It blocks this player's win until they
	// retrieve that card via a center pick-up.
	FailedHiddenPlay bool `json:"failed_hidden_play"`
}

func indexOfCard(cards []Card, c Card) int {
	for i, x := range cards {
		if x == c {
			return i
		}
	}
	return -1
}

func liveSlotIndex(slots []Slot, c Card) int {
	for i, s := range slots {
		if !s.Consumed && s.Card == c {
			return i
		}
	}
	return -1
}

func allConsumed(slots []Slot) bool {
	for _, s := range slots {
		if !s.Consumed {
			return false
		}
	}
	return true
}

// HasCard reports whether c is currently in the player's visible hand.
func (p *Player) HasCard(c Card) bool { return indexOfCard(p.Hand, c) >= 0 }

// UntouchedCleared reports whether every untouched slot is consumed.
func (p *Player) UntouchedCleared() bool { return allConsumed(p.Untouched) }

// HiddenCleared reports whether every hidden slot is consumed.
func (p *Player) HiddenCleared() bool { return allConsumed(p.Hidden) }

// PlayFromHand removes c from the player's hand. Order is preserved for the
// remaining cards; later checks only test membership.
func (p *Player) PlayFromHand(c Card) error {
	i := indexOfCard(p.Hand, c)
	if i < 0 {
		return failf(InvalidSelection, "The card does not exist in the player's hand.")
	}
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return nil
}

// UntouchedCard validates the gating invariant and slot selection for an
// untouched play and returns the slot's card without consuming it. The state
// machine tests legality on the returned card before committing the play.
func (p *Player) UntouchedCard(idx int, deckEmpty bool) (Card, error) {
	if !deckEmpty || len(p.Hand) != 0 {
		return 0, failf(ResourceExhausted, "You cannot play the cards in your untouched hand yet!")
	}
	if idx < 0 || idx >= len(p.Untouched) {
		return 0, failf(InvalidSelection, "The chosen card position is invalid.")
	}
	if p.Untouched[idx].Consumed {
		return 0, failf(InvalidSelection, "The chosen card position has already been played.")
	}
	return p.Untouched[idx].Card, nil
}

// ConsumeUntouched marks an untouched slot as played. Callers must have
// validated the slot via UntouchedCard first.
func (p *Player) ConsumeUntouched(idx int) { p.Untouched[idx].Consumed = true }

// PlayFromHidden validates the hidden-tier gating (deck, hand, and every
// untouched slot empty), consumes the slot, and returns the revealed card.
// The caller decides what happens when the reveal turns out to be illegal.
func (p *Player) PlayFromHidden(idx int, deckEmpty bool) (Card, error) {
	if !deckEmpty || len(p.Hand) != 0 || !p.UntouchedCleared() {
		return 0, failf(ResourceExhausted, "You cannot play the cards in your hidden hand yet!")
	}
	if idx < 0 || idx >= len(p.Hidden) {
		return 0, failf(InvalidSelection, "The chosen card position is invalid.")
	}
	if p.Hidden[idx].Consumed {
		return 0, failf(InvalidSelection, "The chosen card position has already been played.")
	}
	p.Hidden[idx].Consumed = true
	return p.Hidden[idx].Card, nil
}

// Swap exchanges up to MaxSwapPairs hand cards with untouched cards,
// element-wise. Both tiers keep their total size. The exchange is atomic: a
// rejected pair (absent card, duplicate selection) leaves both tiers
// untouched.
func (p *Player) Swap(handSel, untouchedSel []Card) error {
	if len(handSel) != len(untouchedSel) {
		return failf(InvalidSelection, "The swap is invalid: the number of cards selected are unequal.")
	}
	if len(handSel) > MaxSwapPairs {
		return failf(InvalidSelection, "The swap is invalid: you cannot swap more than %d cards.", MaxSwapPairs)
	}

	hand := append([]Card(nil), p.Hand...)
	untouched := append([]Slot(nil), p.Untouched...)
	for i := range handSel {
		hi := indexOfCard(hand, handSel[i])
		ui := liveSlotIndex(untouched, untouchedSel[i])
		if hi < 0 || ui < 0 {
			return failf(InvalidSelection, "The selected cards don't exist in your hand.")
		}
		hand[hi], untouched[ui].Card = untouched[ui].Card, hand[hi]
	}
	p.Hand = hand
	p.Untouched = untouched
	return nil
}
