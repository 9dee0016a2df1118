// internal/engine/pile.go
package engine

// EffectiveTop returns the card legality is tested against: scanning from the
// end of the pile, the first card whose rank is not transparent. If every
// card down to position 0 is transparent, the bottom card is returned.
func EffectiveTop(pile []Card) (Card, error) {
	if len(pile) == 0 {
		return 0, ErrEmptyPile
	}
	for i := len(pile) - 1; i > 0; i-- {
		if !pile[i].IsTransparent() {
			return pile[i], nil
		}
	}
	return pile[0], nil
}

// IsBurn reports whether the pile should burn: either the last card is a burn
// trigger, or the last four collapsed ranks are equal. Collapsing replaces
// each transparent card's rank with the already-collapsed rank of the card
// beneath it; the bottom card always collapses to its own rank, transparent
// or not.
func IsBurn(pile []Card) bool {
	if len(pile) == 0 {
		return false
	}
	if pile[len(pile)-1].IsBurnTrigger() {
		return true
	}
	if len(pile) < 4 {
		return false
	}

	collapsed := make([]int, len(pile))
	collapsed[0] = pile[0].Rank()
	for i := 1; i < len(pile); i++ {
		if pile[i].IsTransparent() {
			collapsed[i] = collapsed[i-1]
		} else {
			collapsed[i] = pile[i].Rank()
		}
	}

	top := collapsed[len(collapsed)-4:]
	return top[0] == top[1] && top[1] == top[2] && top[2] == top[3]
}
