// internal/engine/turn.go
package engine

// NextTurn computes the seat holding the turn after a play by seat last.
// A go-again outcome (rank-2 play or any burn) retains the turn; otherwise
// the turn passes to the next seat in list order, wrapping past the end.
func NextTurn(numPlayers, last int, goAgain bool) int {
	if goAgain {
		return last
	}
	return (last + 1) % numPlayers
}

// advanceTurn moves the game's turn pointer per NextTurn.
func (g *Game) advanceTurn(goAgain bool) {
	g.TurnIdx = NextTurn(len(g.Players), g.TurnIdx, goAgain)
}

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player { return g.Players[g.TurnIdx] }
