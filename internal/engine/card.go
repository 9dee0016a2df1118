// internal/engine/card.go
package engine

// Card identifies a single card in the deck by its integer identity.
// The rank is derived; suits never matter to the rules.
type Card int

const (
	// DeckSize is the number of cards in the standard deck (identities 0..51).
	DeckSize = 52

	// NumRanks is the number of distinct ranks; Rank(c) = c % NumRanks.
	NumRanks = 13

	// RankGoAgain lets the player who played it keep the turn.
	RankGoAgain = 2

	// RankTransparent is skipped when computing the pile's effective top card.
	RankTransparent = 3

	// RankBurn instantly clears the played pile into the discard pile.
	RankBurn = 10
)

// Rank returns the card's rank, 0..12.
func (c Card) Rank() int { return int(c) % NumRanks }

// IsGoAgain reports whether playing this card retains the turn.
func (c Card) IsGoAgain() bool { return c.Rank() == RankGoAgain }

// IsTransparent reports whether this card is ignored for effective-top purposes.
func (c Card) IsTransparent() bool { return c.Rank() == RankTransparent }

// IsBurnTrigger reports whether this card burns the pile on play.
func (c Card) IsBurnTrigger() bool { return c.Rank() == RankBurn }
