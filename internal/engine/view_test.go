// internal/engine/view_test.go
package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewRedactsOtherHands(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{5, 9}
	g.Players[1].Hand = []Card{4, 8, 12}
	g.Players[1].Hidden = []Slot{LiveSlot(40), {Card: 41, Consumed: true}}

	v, err := g.ViewFor(ann)
	require.NoError(t, err)

	assert.Equal(t, []Card{5, 9}, v.Hand)
	require.Len(t, v.Players, 2)
	assert.Equal(t, 3, v.Players[1].HandSize)
	// Hidden cards never appear; only their consumed markers do.
	assert.Equal(t, []bool{false, true}, v.Players[1].HiddenPlayed)
	assert.Equal(t, "ann", v.TurnAt)
	assert.True(t, v.Players[0].IsTurn)
}

func TestViewPlayableCards(t *testing.T) {
	g, ann, _ := newTable(t)

	// Empty pile: everything plays.
	v, err := g.ViewFor(ann)
	require.NoError(t, err)
	assert.Len(t, v.PlayableCards, DeckSize)

	g.PlayedPile = []Card{9}
	v, err = g.ViewFor(ann)
	require.NoError(t, err)
	assert.Contains(t, v.PlayableCards, Card(11))
	assert.Contains(t, v.PlayableCards, Card(2))
	assert.NotContains(t, v.PlayableCards, Card(5))
}

func TestViewRejectsNonMember(t *testing.T) {
	g, _, _ := newTable(t)
	_, err := g.ViewFor(uuid.New())
	requireFailure(t, err, Forbidden)
}

func TestViewReportsWinner(t *testing.T) {
	g, ann, bob := newTable(t)
	g.Deck = nil
	g.Players[0].Hand = []Card{11}
	g.Players[0].Untouched = []Slot{{Card: 20, Consumed: true}}
	g.Players[0].Hidden = []Slot{{Card: 30, Consumed: true}}

	out, err := g.Apply(NewPlayCard(ann, 11))
	require.NoError(t, err)
	require.NotNil(t, out.Winner)

	v, err := g.ViewFor(bob)
	require.NoError(t, err)
	assert.True(t, v.Won)
	assert.Equal(t, "ann", v.Winner)
	assert.Equal(t, PhaseEnded, v.Phase)
}
