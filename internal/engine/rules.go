// internal/engine/rules.go
package engine

// CardSet is a membership set of card identities.
type CardSet map[Card]struct{}

// Contains reports whether c is in the set.
func (s CardSet) Contains(c Card) bool {
	_, ok := s[c]
	return ok
}

// Rules is the immutable configuration the engine is constructed with: the
// full deck composition and the precomputed legality table. The engine never
// derives legality itself; it only selects the correct top card and tests
// membership. Tests may construct synthetic rule tables.
type Rules struct {
	Deck      []Card
	Followers map[Card]CardSet
}

// Legal reports whether card c may be played on top card top.
// The empty-pile case (everything legal) is handled by the caller.
func (r *Rules) Legal(top, c Card) bool {
	return r.Followers[top].Contains(c)
}

// StandardRules builds the house legality table over the 52-card deck:
// the three special ranks always play, anything plays on a go-again two,
// and otherwise the played rank must be at least the top card's rank.
func StandardRules() *Rules {
	r := &Rules{
		Deck:      make([]Card, 0, DeckSize),
		Followers: make(map[Card]CardSet, DeckSize),
	}
	for i := 0; i < DeckSize; i++ {
		r.Deck = append(r.Deck, Card(i))
	}
	for _, top := range r.Deck {
		set := make(CardSet, DeckSize)
		for _, c := range r.Deck {
			if playableOn(c, top) {
				set[c] = struct{}{}
			}
		}
		r.Followers[top] = set
	}
	return r
}

func playableOn(c, top Card) bool {
	switch c.Rank() {
	case RankGoAgain, RankTransparent, RankBurn:
		return true
	}
	if top.Rank() == RankGoAgain {
		return true
	}
	return c.Rank() >= top.Rank()
}
