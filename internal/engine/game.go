// internal/engine/game.go
package engine

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Phase is the room lifecycle state.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseSwap    Phase = "swap"
	PhasePlay    Phase = "play"
	PhaseEnded   Phase = "ended"
)

// Deal shape: every player receives four visible cards, three untouched
// slots, and up to three hidden slots. One more card is flipped to open the
// pile, so the 52-card deck supports at most five players.
const (
	DealHandSize      = 4
	DealUntouchedSize = 3
	DealHiddenSize    = 3
	MaxPlayers        = 5
)

// Game is the full state of one room. It is a plain value: Apply is the only
// mutator, callers own serialization (one worker per room), and persistence
// snapshots the exported fields as a single atomic unit.
type Game struct {
	RoomID       string    `json:"room_id"`
	Players      []*Player `json:"players"`
	Deck         []Card    `json:"deck"`
	PlayedPile   []Card    `json:"played_pile"`
	DiscardPile  []Card    `json:"discard_pile"`
	TurnIdx      int       `json:"turn_idx"`
	Phase        Phase     `json:"phase"`
	LastActivity time.Time `json:"last_activity"`

	rules *Rules
	rng   *rand.Rand
}

// NewGame builds an empty waiting-state game over the injected rules. The
// rng drives the uniform deck draws; passing nil seeds one from the clock.
func NewGame(roomID string, rules *Rules, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Game{
		RoomID:       roomID,
		Deck:         append([]Card(nil), rules.Deck...),
		Phase:        PhaseWaiting,
		LastActivity: time.Now(),
		rules:        rules,
		rng:          rng,
	}
}

// Attach re-injects the non-serialized collaborators after a load or clone.
func (g *Game) Attach(rules *Rules, rng *rand.Rand) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.rules = rules
	g.rng = rng
}

// Rules returns the injected rule configuration.
func (g *Game) Rules() *Rules { return g.rules }

// Clone deep-copies the game state. The rules table and rng are shared; the
// clone is only ever mutated by the same single owner that holds the
// original, and read-only snapshot consumers never touch the rng.
func (g *Game) Clone() *Game {
	c := *g
	c.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		pc := *p
		pc.Hand = append([]Card(nil), p.Hand...)
		pc.Untouched = append([]Slot(nil), p.Untouched...)
		pc.Hidden = append([]Slot(nil), p.Hidden...)
		c.Players[i] = &pc
	}
	c.Deck = append([]Card(nil), g.Deck...)
	c.PlayedPile = append([]Card(nil), g.PlayedPile...)
	c.DiscardPile = append([]Card(nil), g.DiscardPile...)
	return &c
}

func (g *Game) playerByID(id uuid.UUID) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (g *Game) seatOf(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Creator returns the player at seat 0, or nil before anyone joined.
func (g *Game) Creator() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	return g.Players[0]
}

// AddPlayer seats a new player. Only possible while the room is waiting.
func (g *Game) AddPlayer(id uuid.UUID, username string) error {
	if g.Phase != PhaseWaiting {
		return failf(PhaseViolation, "This room has already started their game.")
	}
	if len(g.Players) >= MaxPlayers {
		return failf(ResourceExhausted, "This room is full.")
	}
	for _, p := range g.Players {
		if p.Username == username {
			return failf(InvalidSelection, "Username already exists in the room! Please choose another name.")
		}
	}
	g.Players = append(g.Players, &Player{ID: id, Username: username})
	g.LastActivity = time.Now()
	return nil
}

// RemovePlayer unseats a player. Only possible while the room is waiting.
func (g *Game) RemovePlayer(id uuid.UUID) error {
	if g.Phase != PhaseWaiting {
		return failf(PhaseViolation, "You can't leave the room when the game already started.")
	}
	i := g.seatOf(id)
	if i < 0 {
		return failf(NotFound, "Player not found!")
	}
	g.Players = append(g.Players[:i], g.Players[i+1:]...)
	g.LastActivity = time.Now()
	return nil
}

// Apply runs one command against the state machine and returns its outcome.
// A returned error always carries a Failure code and leaves the state
// unchanged, except for the deliberate failed-hidden-play path which is a
// successful command with Playable=false.
func (g *Game) Apply(cmd Command) (*Outcome, error) {
	if g.Phase == PhaseEnded {
		return nil, failf(PhaseViolation, "The game has already ended.")
	}
	p := g.playerByID(cmd.Actor())
	if p == nil {
		return nil, failf(Forbidden, "You are not in this game room!")
	}

	var out *Outcome
	var err error
	switch c := cmd.(type) {
	case StartCmd:
		out, err = g.applyStart(p)
	case SwapCmd:
		out, err = g.applySwap(p, c)
	case LockInCmd:
		out, err = g.applyLockIn(p)
	case PlayCardCmd:
		out, err = g.applyPlayCard(p, c)
	case PlayMultipleCmd:
		out, err = g.applyPlayMultiple(p, c)
	case PlayHiddenCmd:
		out, err = g.applyPlayHidden(p, c)
	case TakeFromCenterCmd:
		out, err = g.applyTakeFromCenter(p, c)
	case DrawCmd:
		out, err = g.applyDraw(p)
	default:
		err = failf(InvalidSelection, "Unknown command.")
	}
	if err != nil {
		return nil, err
	}

	g.LastActivity = time.Now()
	if w := g.checkWin(); w != nil {
		id := *w
		out.Winner = &id
	}
	return out, nil
}

func (g *Game) requireStarted() error {
	if g.Phase == PhaseWaiting {
		return failf(PhaseViolation, "The game has not started yet!")
	}
	return nil
}

func (g *Game) requirePlayPhase() error {
	if err := g.requireStarted(); err != nil {
		return err
	}
	if g.Phase == PhaseSwap {
		return failf(PhaseViolation, "The game is still in the swapping phase. Wait until everyone has locked in.")
	}
	return nil
}

func (g *Game) requireSwapPhase() error {
	if err := g.requireStarted(); err != nil {
		return err
	}
	if g.Phase != PhaseSwap {
		return failf(PhaseViolation, "The game is already past the swapping phase.")
	}
	return nil
}

func (g *Game) requireTurn(p *Player) error {
	if g.CurrentPlayer().ID != p.ID {
		return failf(Forbidden, "It is not your turn to play!")
	}
	return nil
}

// requireLegal tests c against the pile's effective top. An empty pile means
// anything is legal, so the table is bypassed entirely.
func (g *Game) requireLegal(c Card) error {
	top, err := EffectiveTop(g.PlayedPile)
	if err != nil {
		return nil
	}
	if !g.rules.Legal(top, c) {
		return failf(InvalidSelection, "The selected card cannot be played to the center.")
	}
	return nil
}

func (g *Game) drawRandom() Card {
	i := g.rng.Intn(len(g.Deck))
	c := g.Deck[i]
	g.Deck = append(g.Deck[:i], g.Deck[i+1:]...)
	return c
}

// playToPile appends cards and resolves a burn, moving the whole pile into
// the discard when one triggers. Returns whether a burn happened.
func (g *Game) playToPile(cards ...Card) bool {
	g.PlayedPile = append(g.PlayedPile, cards...)
	if !IsBurn(g.PlayedPile) {
		return false
	}
	g.DiscardPile = append(g.DiscardPile, g.PlayedPile...)
	g.PlayedPile = nil
	return true
}

func (g *Game) applyStart(p *Player) (*Outcome, error) {
	if g.Phase != PhaseWaiting {
		return nil, failf(PhaseViolation, "The game has already started.")
	}
	if g.Creator().ID != p.ID {
		return nil, failf(Forbidden, "You are not the room creator!")
	}
	if len(g.Players) < 2 {
		return nil, failf(InvalidSelection, "There are not enough people in the lobby to start a game!")
	}

	for _, pl := range g.Players {
		pl.Hand = make([]Card, 0, DealHandSize)
		for i := 0; i < DealHandSize; i++ {
			pl.Hand = append(pl.Hand, g.drawRandom())
		}
		pl.Untouched = make([]Slot, 0, DealUntouchedSize)
		for i := 0; i < DealUntouchedSize; i++ {
			pl.Untouched = append(pl.Untouched, LiveSlot(g.drawRandom()))
		}
		pl.Hidden = make([]Slot, 0, DealHiddenSize)
		for i := 0; i < DealHiddenSize && len(g.Deck) > 0; i++ {
			pl.Hidden = append(pl.Hidden, LiveSlot(g.drawRandom()))
		}
	}
	g.PlayedPile = []Card{g.drawRandom()}
	g.Phase = PhaseSwap

	return &Outcome{Command: "start", PlayerID: p.ID, Played: append([]Card(nil), g.PlayedPile...)}, nil
}

func (g *Game) applySwap(p *Player, cmd SwapCmd) (*Outcome, error) {
	if err := g.requireSwapPhase(); err != nil {
		return nil, err
	}
	if p.Swapped {
		return nil, failf(PhaseViolation, "You have already locked in your swaps!")
	}
	if err := p.Swap(cmd.Hand, cmd.Untouched); err != nil {
		return nil, err
	}
	return &Outcome{Command: cmd.Name(), PlayerID: p.ID}, nil
}

func (g *Game) applyLockIn(p *Player) (*Outcome, error) {
	if err := g.requireSwapPhase(); err != nil {
		return nil, err
	}
	p.Swapped = true

	ready := true
	for _, pl := range g.Players {
		if !pl.Swapped {
			ready = false
			break
		}
	}
	if ready {
		g.Phase = PhasePlay
		g.TurnIdx = 0
	}
	return &Outcome{Command: "lock_in", PlayerID: p.ID, EveryoneReady: ready}, nil
}

func (g *Game) applyPlayCard(p *Player, cmd PlayCardCmd) (*Outcome, error) {
	if err := g.requirePlayPhase(); err != nil {
		return nil, err
	}
	if err := g.requireTurn(p); err != nil {
		return nil, err
	}

	var card Card
	if cmd.FromUntouched {
		c, err := p.UntouchedCard(cmd.Slot, len(g.Deck) == 0)
		if err != nil {
			return nil, err
		}
		if err := g.requireLegal(c); err != nil {
			return nil, err
		}
		p.ConsumeUntouched(cmd.Slot)
		card = c
	} else {
		if !p.HasCard(cmd.Card) {
			return nil, failf(InvalidSelection, "The card does not exist in the player's hand.")
		}
		if err := g.requireLegal(cmd.Card); err != nil {
			return nil, err
		}
		if err := p.PlayFromHand(cmd.Card); err != nil {
			return nil, err
		}
		card = cmd.Card
	}

	burn := g.playToPile(card)
	goAgain := burn || card.IsGoAgain()
	g.advanceTurn(goAgain)

	out := &Outcome{
		Command:  cmd.Name(),
		PlayerID: p.ID,
		Played:   []Card{card},
		Burn:     burn,
		GoAgain:  goAgain,
	}
	if cmd.FromUntouched {
		out.Revealed = &card
		out.Playable = true
	}
	return out, nil
}

func (g *Game) applyPlayMultiple(p *Player, cmd PlayMultipleCmd) (*Outcome, error) {
	if err := g.requirePlayPhase(); err != nil {
		return nil, err
	}
	if err := g.requireTurn(p); err != nil {
		return nil, err
	}
	if len(cmd.Cards) == 0 {
		return nil, failf(InvalidSelection, "No cards were selected.")
	}

	rank := cmd.Cards[0].Rank()
	for _, c := range cmd.Cards {
		if c.Rank() != rank {
			return nil, failf(InvalidSelection, "The selected cards aren't duplicates (not same number).")
		}
	}

	fromUntouched := len(cmd.Cards) > len(p.Hand)
	if fromUntouched && len(g.Deck) != 0 {
		return nil, failf(ResourceExhausted, "You cannot play your untouched cards until the deck runs out.")
	}
	if err := g.requireLegal(cmd.Cards[0]); err != nil {
		return nil, err
	}

	// Stage the removals on copies so a bad selection rejects atomically.
	hand := append([]Card(nil), p.Hand...)
	untouched := append([]Slot(nil), p.Untouched...)
	for _, c := range cmd.Cards {
		if i := indexOfCard(hand, c); i >= 0 {
			hand = append(hand[:i], hand[i+1:]...)
			continue
		}
		if fromUntouched {
			if ui := liveSlotIndex(untouched, c); ui >= 0 {
				untouched[ui].Consumed = true
				continue
			}
		}
		return nil, failf(InvalidSelection, "There is a card that does not exist in your hand.")
	}
	p.Hand = hand
	p.Untouched = untouched

	burn := g.playToPile(cmd.Cards...)
	goAgain := burn || rank == RankGoAgain
	g.advanceTurn(goAgain)

	return &Outcome{
		Command:  cmd.Name(),
		PlayerID: p.ID,
		Played:   append([]Card(nil), cmd.Cards...),
		Burn:     burn,
		GoAgain:  goAgain,
	}, nil
}

func (g *Game) applyPlayHidden(p *Player, cmd PlayHiddenCmd) (*Outcome, error) {
	if err := g.requirePlayPhase(); err != nil {
		return nil, err
	}
	if err := g.requireTurn(p); err != nil {
		return nil, err
	}

	card, err := p.PlayFromHidden(cmd.Slot, len(g.Deck) == 0)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Command: cmd.Name(), PlayerID: p.ID, Revealed: &card, Played: []Card{card}}
	if err := g.requireLegal(card); err != nil {
		// The reveal was illegal: the card stays face-up in the pile for
		// anyone to collect, and the player's win is blocked until they pick
		// that exact card back up. The turn is kept so they can do so.
		g.PlayedPile = append(g.PlayedPile, card)
		p.FailedHiddenPlay = true
		out.Playable = false
		return out, nil
	}

	out.Playable = true
	out.Burn = g.playToPile(card)
	out.GoAgain = out.Burn || card.IsGoAgain()
	g.advanceTurn(out.GoAgain)
	return out, nil
}

func (g *Game) applyTakeFromCenter(p *Player, cmd TakeFromCenterCmd) (*Outcome, error) {
	if err := g.requirePlayPhase(); err != nil {
		return nil, err
	}
	if err := g.requireTurn(p); err != nil {
		return nil, err
	}

	chosen := cmd.Card
	fromUntouched := false
	if !p.HasCard(chosen) && indexOfCard(g.PlayedPile, chosen) < 0 {
		ui := liveSlotIndex(p.Untouched, chosen)
		if ui >= 0 && len(p.Hand) == 0 {
			fromUntouched = true
			p.ConsumeUntouched(ui)
		} else {
			return nil, failf(InvalidSelection, "The selected card doesn't exist in your hand!")
		}
	}

	if fromUntouched {
		p.Hand = append([]Card{chosen}, g.PlayedPile...)
	} else {
		p.Hand = append(p.Hand, g.PlayedPile...)
	}
	i := indexOfCard(p.Hand, chosen)
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	g.PlayedPile = []Card{chosen}

	p.FailedHiddenPlay = false

	// Picking up forfeits the play, so the turn always passes.
	g.advanceTurn(false)

	return &Outcome{Command: cmd.Name(), PlayerID: p.ID, Played: []Card{chosen}}, nil
}

func (g *Game) applyDraw(p *Player) (*Outcome, error) {
	if err := g.requirePlayPhase(); err != nil {
		return nil, err
	}
	if len(g.Deck) == 0 {
		return nil, failf(ResourceExhausted, "The draw pile has no more cards.")
	}
	card := g.drawRandom()
	p.Hand = append(p.Hand, card)
	return &Outcome{Command: "draw", PlayerID: p.ID, Drawn: &card}, nil
}

// checkWin declares the first player (in seat order) who has shed everything:
// empty deck, empty hand, every untouched and hidden slot consumed, and no
// outstanding failed hidden play. Transitions the game to Ended.
func (g *Game) checkWin() *uuid.UUID {
	if g.Phase != PhasePlay || len(g.Deck) != 0 {
		return nil
	}
	for _, p := range g.Players {
		if len(p.Hand) == 0 && !p.FailedHiddenPlay && p.UntouchedCleared() && p.HiddenCleared() {
			g.Phase = PhaseEnded
			return &p.ID
		}
	}
	return nil
}

// Winner returns the winning player once the game has ended, else nil.
func (g *Game) Winner() *Player {
	if g.Phase != PhaseEnded {
		return nil
	}
	for _, p := range g.Players {
		if len(p.Hand) == 0 && !p.FailedHiddenPlay && p.UntouchedCleared() && p.HiddenCleared() {
			return p
		}
	}
	return nil
}
