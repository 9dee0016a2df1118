// internal/engine/game_test.go
package engine

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLobby(t *testing.T, names ...string) (*Game, []uuid.UUID) {
	t.Helper()
	g := NewGame("TESTRM", StandardRules(), rand.New(rand.NewSource(1)))
	ids := make([]uuid.UUID, len(names))
	for i, n := range names {
		ids[i] = uuid.New()
		require.NoError(t, g.AddPlayer(ids[i], n))
	}
	return g, ids
}

// newTable builds a two-player game already in the play phase with empty
// tiers, so tests can lay out exact hands and piles.
func newTable(t *testing.T) (*Game, uuid.UUID, uuid.UUID) {
	t.Helper()
	g, ids := newLobby(t, "ann", "bob")
	g.Phase = PhasePlay
	for _, p := range g.Players {
		p.Swapped = true
	}
	return g, ids[0], ids[1]
}

func requireFailure(t *testing.T, err error, code FailureCode) *Failure {
	t.Helper()
	f, ok := AsFailure(err)
	require.True(t, ok, "expected a typed failure, got %v", err)
	require.Equal(t, code, f.Code)
	return f
}

// census sums every card location that still owns its card: consumed slots
// hold a stale copy, so only live slots count.
func census(g *Game) int {
	n := len(g.Deck) + len(g.PlayedPile) + len(g.DiscardPile)
	for _, p := range g.Players {
		n += len(p.Hand)
		for _, s := range p.Untouched {
			if !s.Consumed {
				n++
			}
		}
		for _, s := range p.Hidden {
			if !s.Consumed {
				n++
			}
		}
	}
	return n
}

func TestAddPlayerRules(t *testing.T) {
	g, _ := newLobby(t, "ann")

	err := g.AddPlayer(uuid.New(), "ann")
	requireFailure(t, err, InvalidSelection)

	for _, n := range []string{"bob", "cal", "dee", "eve"} {
		require.NoError(t, g.AddPlayer(uuid.New(), n))
	}
	err = g.AddPlayer(uuid.New(), "fay")
	requireFailure(t, err, ResourceExhausted)
}

func TestStartDeals(t *testing.T) {
	g, ids := newLobby(t, "ann", "bob")

	_, err := g.Apply(NewStart(ids[1]))
	requireFailure(t, err, Forbidden)

	out, err := g.Apply(NewStart(ids[0]))
	require.NoError(t, err)
	assert.Equal(t, PhaseSwap, g.Phase)
	assert.Len(t, out.Played, 1)
	assert.Len(t, g.PlayedPile, 1)
	assert.Len(t, g.Deck, DeckSize-2*(DealHandSize+DealUntouchedSize+DealHiddenSize)-1)
	for _, p := range g.Players {
		assert.Len(t, p.Hand, DealHandSize)
		assert.Len(t, p.Untouched, DealUntouchedSize)
		assert.Len(t, p.Hidden, DealHiddenSize)
	}
	assert.Equal(t, DeckSize, census(g))

	// Joining or starting again is no longer possible.
	err = g.AddPlayer(uuid.New(), "cal")
	requireFailure(t, err, PhaseViolation)
	_, err = g.Apply(NewStart(ids[0]))
	requireFailure(t, err, PhaseViolation)
}

func TestStartNeedsTwoPlayers(t *testing.T) {
	g, ids := newLobby(t, "ann")
	_, err := g.Apply(NewStart(ids[0]))
	requireFailure(t, err, InvalidSelection)
}

func TestSwapThenLockIn(t *testing.T) {
	g, ids := newLobby(t, "ann", "bob")
	_, err := g.Apply(NewStart(ids[0]))
	require.NoError(t, err)

	ann := g.Players[0]
	h, u := ann.Hand[0], ann.Untouched[0].Card
	_, err = g.Apply(NewSwap(ids[0], []Card{h}, []Card{u}))
	require.NoError(t, err)
	assert.Equal(t, h, ann.Untouched[0].Card)
	assert.True(t, ann.HasCard(u))

	out, err := g.Apply(NewLockIn(ids[0]))
	require.NoError(t, err)
	assert.False(t, out.EveryoneReady)
	assert.Equal(t, PhaseSwap, g.Phase)

	// Swapping after lock-in is rejected.
	_, err = g.Apply(NewSwap(ids[0], nil, nil))
	requireFailure(t, err, PhaseViolation)

	out, err = g.Apply(NewLockIn(ids[1]))
	require.NoError(t, err)
	assert.True(t, out.EveryoneReady)
	assert.Equal(t, PhasePlay, g.Phase)
	assert.Equal(t, 0, g.TurnIdx)
}

func TestPlayBeforeLockInRejected(t *testing.T) {
	g, ids := newLobby(t, "ann", "bob")
	_, err := g.Apply(NewStart(ids[0]))
	require.NoError(t, err)

	_, err = g.Apply(NewPlayCard(ids[0], g.Players[0].Hand[0]))
	requireFailure(t, err, PhaseViolation)
}

func TestPlayCardFromHand(t *testing.T) {
	g, ann, bob := newTable(t)
	g.Players[0].Hand = []Card{9}
	g.PlayedPile = []Card{5}

	_, err := g.Apply(NewPlayCard(bob, 9))
	requireFailure(t, err, Forbidden) // not their turn

	out, err := g.Apply(NewPlayCard(ann, 9))
	require.NoError(t, err)
	assert.Equal(t, []Card{9}, out.Played)
	assert.False(t, out.GoAgain)
	assert.Equal(t, []Card{5, 9}, g.PlayedPile)
	assert.Empty(t, g.Players[0].Hand)
	assert.Equal(t, 1, g.TurnIdx)
}

func TestPlayCardIllegalLeavesStateUnchanged(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{5}
	g.PlayedPile = []Card{9}

	_, err := g.Apply(NewPlayCard(ann, 5))
	requireFailure(t, err, InvalidSelection)
	assert.Equal(t, []Card{5}, g.Players[0].Hand)
	assert.Equal(t, []Card{9}, g.PlayedPile)
	assert.Equal(t, 0, g.TurnIdx)
}

func TestPlayCardNotInHand(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{5}

	_, err := g.Apply(NewPlayCard(ann, 6))
	requireFailure(t, err, InvalidSelection)
}

func TestGoAgainKeepsTurn(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{2, 9}
	g.PlayedPile = []Card{12}

	out, err := g.Apply(NewPlayCard(ann, 2))
	require.NoError(t, err)
	assert.True(t, out.GoAgain)
	assert.Equal(t, 0, g.TurnIdx)

	// Anything plays on a two; the follow-up passes the turn.
	out, err = g.Apply(NewPlayCard(ann, 9))
	require.NoError(t, err)
	assert.False(t, out.GoAgain)
	assert.Equal(t, 1, g.TurnIdx)
}

func TestBurnClearsPileAndKeepsTurn(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{23} // rank 10
	g.PlayedPile = []Card{5, 9}

	out, err := g.Apply(NewPlayCard(ann, 23))
	require.NoError(t, err)
	assert.True(t, out.Burn)
	assert.True(t, out.GoAgain)
	assert.Empty(t, g.PlayedPile)
	assert.Len(t, g.DiscardPile, 3)
	assert.Equal(t, 0, g.TurnIdx)
}

func TestFourOfAKindBurns(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{46}
	g.PlayedPile = []Card{7, 20, 33}

	out, err := g.Apply(NewPlayCard(ann, 46))
	require.NoError(t, err)
	assert.True(t, out.Burn)
	assert.Empty(t, g.PlayedPile)
}

func TestPlayMultiple(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{7, 20, 4}
	g.PlayedPile = []Card{5}

	out, err := g.Apply(NewPlayMultiple(ann, []Card{7, 20}))
	require.NoError(t, err)
	assert.Equal(t, []Card{7, 20}, out.Played)
	assert.Equal(t, []Card{4}, g.Players[0].Hand)
	assert.Equal(t, []Card{5, 7, 20}, g.PlayedPile)
	assert.Equal(t, 1, g.TurnIdx)
}

func TestPlayMultipleRejectsMixedRanks(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{7, 8}

	_, err := g.Apply(NewPlayMultiple(ann, []Card{7, 8}))
	requireFailure(t, err, InvalidSelection)
	assert.Equal(t, []Card{7, 8}, g.Players[0].Hand)
}

func TestPlayMultipleRejectsEmptySelection(t *testing.T) {
	g, ann, _ := newTable(t)
	_, err := g.Apply(NewPlayMultiple(ann, nil))
	requireFailure(t, err, InvalidSelection)
}

func TestPlayMultipleOverflowsIntoUntouched(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{7}
	g.Players[0].Untouched = []Slot{LiveSlot(20), LiveSlot(9)}

	// With cards still in the deck the untouched tier stays locked.
	_, err := g.Apply(NewPlayMultiple(ann, []Card{7, 20}))
	requireFailure(t, err, ResourceExhausted)

	g.Deck = nil
	out, err := g.Apply(NewPlayMultiple(ann, []Card{7, 20}))
	require.NoError(t, err)
	assert.Equal(t, []Card{7, 20}, out.Played)
	assert.Empty(t, g.Players[0].Hand)
	assert.True(t, g.Players[0].Untouched[0].Consumed)
	assert.False(t, g.Players[0].Untouched[1].Consumed)
}

func TestPlayMultipleRejectsAbsentCardAtomically(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{7}

	_, err := g.Apply(NewPlayMultiple(ann, []Card{7, 20}))
	requireFailure(t, err, ResourceExhausted) // deck not empty, 20 isn't in hand

	g.Deck = nil
	_, err = g.Apply(NewPlayMultiple(ann, []Card{7, 20}))
	requireFailure(t, err, InvalidSelection)
	assert.Equal(t, []Card{7}, g.Players[0].Hand)
}

func TestPlayUntouchedAtomicOnIllegalReveal(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Deck = nil
	g.Players[0].Hand = nil
	g.Players[0].Untouched = []Slot{LiveSlot(5)}
	g.PlayedPile = []Card{9}

	_, err := g.Apply(NewPlayUntouched(ann, 0))
	requireFailure(t, err, InvalidSelection)
	// The slot survives a rejected play.
	assert.False(t, g.Players[0].Untouched[0].Consumed)
	assert.Equal(t, 0, g.TurnIdx)
}

func TestPlayUntouchedLegal(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Deck = nil
	g.Players[0].Hand = nil
	g.Players[0].Untouched = []Slot{LiveSlot(9), LiveSlot(4)}
	g.PlayedPile = []Card{5}

	out, err := g.Apply(NewPlayUntouched(ann, 0))
	require.NoError(t, err)
	require.NotNil(t, out.Revealed)
	assert.Equal(t, Card(9), *out.Revealed)
	assert.True(t, out.Playable)
	assert.True(t, g.Players[0].Untouched[0].Consumed)
	assert.Equal(t, []Card{5, 9}, g.PlayedPile)
	assert.Equal(t, 1, g.TurnIdx)
}

func TestPlayHiddenFailureKeepsTurnAndBlocksWin(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Deck = nil
	g.Players[0].Hand = nil
	g.Players[0].Untouched = []Slot{{Card: 20, Consumed: true}}
	g.Players[0].Hidden = []Slot{LiveSlot(5)}
	g.PlayedPile = []Card{9}

	out, err := g.Apply(NewPlayHidden(ann, 0))
	require.NoError(t, err)
	require.NotNil(t, out.Revealed)
	assert.Equal(t, Card(5), *out.Revealed)
	assert.False(t, out.Playable)
	assert.Nil(t, out.Winner)

	// The reveal sits face-up, the flag is set, and the turn stays so the
	// player can pick the pile up.
	assert.Equal(t, []Card{9, 5}, g.PlayedPile)
	assert.True(t, g.Players[0].FailedHiddenPlay)
	assert.Equal(t, 0, g.TurnIdx)
	assert.Equal(t, PhasePlay, g.Phase)
}

func TestPlayHiddenLegalWins(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Deck = nil
	g.Players[0].Hand = nil
	g.Players[0].Untouched = []Slot{{Card: 20, Consumed: true}}
	g.Players[0].Hidden = []Slot{LiveSlot(11)}
	g.PlayedPile = []Card{5}

	out, err := g.Apply(NewPlayHidden(ann, 0))
	require.NoError(t, err)
	assert.True(t, out.Playable)
	require.NotNil(t, out.Winner)
	assert.Equal(t, ann, *out.Winner)
	assert.Equal(t, PhaseEnded, g.Phase)
	require.NotNil(t, g.Winner())
	assert.Equal(t, "ann", g.Winner().Username)

	// No further commands once ended.
	_, err = g.Apply(NewDraw(ann))
	requireFailure(t, err, PhaseViolation)
}

func TestTakeFromCenter(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{4}
	g.PlayedPile = []Card{9, 11}

	out, err := g.Apply(NewTakeFromCenter(ann, 4))
	require.NoError(t, err)
	assert.Equal(t, []Card{4}, out.Played)
	assert.Equal(t, []Card{4}, g.PlayedPile)
	assert.ElementsMatch(t, []Card{9, 11}, g.Players[0].Hand)
	assert.Equal(t, 1, g.TurnIdx)
}

func TestTakeFromCenterWithPileCard(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = nil
	g.Players[0].FailedHiddenPlay = true
	g.PlayedPile = []Card{9, 5}

	// Retrieving the failed reveal clears the win block.
	_, err := g.Apply(NewTakeFromCenter(ann, 5))
	require.NoError(t, err)
	assert.False(t, g.Players[0].FailedHiddenPlay)
	assert.Equal(t, []Card{5}, g.PlayedPile)
	assert.Equal(t, []Card{9}, g.Players[0].Hand)
}

func TestTakeFromCenterFromUntouched(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = nil
	g.Players[0].Untouched = []Slot{LiveSlot(5)}
	g.PlayedPile = []Card{9, 11}

	_, err := g.Apply(NewTakeFromCenter(ann, 5))
	require.NoError(t, err)
	assert.True(t, g.Players[0].Untouched[0].Consumed)
	assert.Equal(t, []Card{5}, g.PlayedPile)
	assert.ElementsMatch(t, []Card{9, 11}, g.Players[0].Hand)
}

func TestTakeFromCenterRejectsUnownedCard(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{4}
	g.PlayedPile = []Card{9}

	_, err := g.Apply(NewTakeFromCenter(ann, 30))
	requireFailure(t, err, InvalidSelection)
}

func TestDrawIgnoresTurn(t *testing.T) {
	g, _, bob := newTable(t)
	deckBefore := len(g.Deck)

	out, err := g.Apply(NewDraw(bob))
	require.NoError(t, err)
	require.NotNil(t, out.Drawn)
	assert.Len(t, g.Deck, deckBefore-1)
	assert.Equal(t, []Card{*out.Drawn}, g.Players[1].Hand)
	assert.Equal(t, 0, g.TurnIdx)
}

func TestDrawFromEmptyDeck(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Deck = nil
	_, err := g.Apply(NewDraw(ann))
	requireFailure(t, err, ResourceExhausted)
}

func TestApplyRejectsNonMember(t *testing.T) {
	g, _, _ := newTable(t)
	_, err := g.Apply(NewDraw(uuid.New()))
	requireFailure(t, err, Forbidden)
}

func TestCardConservation(t *testing.T) {
	g, ids := newLobby(t, "ann", "bob", "cal")
	_, err := g.Apply(NewStart(ids[0]))
	require.NoError(t, err)
	for _, id := range ids {
		_, err := g.Apply(NewLockIn(id))
		require.NoError(t, err)
	}
	require.Equal(t, DeckSize, census(g))

	for i := 0; i < 10; i++ {
		_, err := g.Apply(NewDraw(ids[i%3]))
		require.NoError(t, err)
		require.Equal(t, DeckSize, census(g))
	}

	// Whoever holds the turn dumps the pile into their hand; conservation
	// must hold through the exchange.
	cur := g.CurrentPlayer()
	_, err = g.Apply(NewTakeFromCenter(cur.ID, cur.Hand[0]))
	require.NoError(t, err)
	require.Equal(t, DeckSize, census(g))
}

func TestCloneIsDeep(t *testing.T) {
	g, ann, _ := newTable(t)
	g.Players[0].Hand = []Card{5, 9}
	g.PlayedPile = []Card{4}

	c := g.Clone()
	_, err := c.Apply(NewPlayCard(ann, 9))
	require.NoError(t, err)

	assert.Equal(t, []Card{5, 9}, g.Players[0].Hand)
	assert.Equal(t, []Card{4}, g.PlayedPile)
	assert.Equal(t, 0, g.TurnIdx)
}
