// internal/engine/view.go
package engine

import "github.com/google/uuid"

// SeatView is one player's state as visible to every room member: hand size
// only, untouched tier face-up, hidden tier as consumed markers.
type SeatView struct {
	PlayerID     uuid.UUID `json:"player_id"`
	Username     string    `json:"username"`
	HandSize     int       `json:"hand_size"`
	Untouched    []Slot    `json:"untouched"`
	HiddenPlayed []bool    `json:"hidden_played"`
	Swapped      bool      `json:"swapped"`
	IsTurn       bool      `json:"is_turn"`
}

// View is a consistent, per-viewer snapshot of the room. Only the viewer's
// own hand is revealed.
type View struct {
	RoomID          string     `json:"room_id"`
	Phase           Phase      `json:"phase"`
	Players         []SeatView `json:"players"`
	EveryoneSwapped bool       `json:"everyone_swapped"`

	Hand         []Card `json:"hand"`
	Untouched    []Slot `json:"untouched"`
	HiddenPlayed []bool `json:"hidden_played"`

	DeckSize    int    `json:"deck_size"`
	PlayedPile  []Card `json:"played_pile"`
	DiscardPile []Card `json:"discard_pile"`

	TurnAt        string `json:"turn_at"`
	PlayableCards []Card `json:"playable_cards"`

	Won    bool   `json:"won"`
	Winner string `json:"winner,omitempty"`
}

func hiddenMarkers(slots []Slot) []bool {
	out := make([]bool, len(slots))
	for i, s := range slots {
		out[i] = s.Consumed
	}
	return out
}

// ViewFor renders the snapshot from one member's perspective. It is
// read-only: win detection itself happens in Apply, this merely reflects it.
func (g *Game) ViewFor(viewer uuid.UUID) (*View, error) {
	me := g.playerByID(viewer)
	if me == nil {
		return nil, failf(Forbidden, "You are not in this game room!")
	}

	v := &View{
		RoomID:          g.RoomID,
		Phase:           g.Phase,
		EveryoneSwapped: true,
		Hand:            append([]Card(nil), me.Hand...),
		Untouched:       append([]Slot(nil), me.Untouched...),
		HiddenPlayed:    hiddenMarkers(me.Hidden),
		DeckSize:        len(g.Deck),
		PlayedPile:      append([]Card(nil), g.PlayedPile...),
		DiscardPile:     append([]Card(nil), g.DiscardPile...),
	}

	for i, p := range g.Players {
		isTurn := g.Phase == PhasePlay && i == g.TurnIdx
		if isTurn {
			v.TurnAt = p.Username
		}
		if !p.Swapped {
			v.EveryoneSwapped = false
		}
		v.Players = append(v.Players, SeatView{
			PlayerID:     p.ID,
			Username:     p.Username,
			HandSize:     len(p.Hand),
			Untouched:    append([]Slot(nil), p.Untouched...),
			HiddenPlayed: hiddenMarkers(p.Hidden),
			Swapped:      p.Swapped,
			IsTurn:       isTurn,
		})
	}

	if g.Phase == PhasePlay || g.Phase == PhaseEnded {
		v.PlayableCards = g.playableCards()
	}
	if w := g.Winner(); w != nil {
		v.Won = true
		v.Winner = w.Username
	}
	return v, nil
}

// playableCards lists every identity legal on the current pile: the whole
// deck range when the pile is empty, else the followers of the effective top.
func (g *Game) playableCards() []Card {
	top, err := EffectiveTop(g.PlayedPile)
	if err != nil {
		return append([]Card(nil), g.rules.Deck...)
	}
	out := make([]Card, 0, len(g.rules.Followers[top]))
	for _, c := range g.rules.Deck {
		if g.rules.Legal(top, c) {
			out = append(out, c)
		}
	}
	return out
}
