// internal/handlers/game.go
package handlers

import (
	"net/http"

	"github.com/palacegame/palace/internal/engine"
	"github.com/palacegame/palace/internal/room"
)

func (s *Server) roomFor(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	rm, ok := s.Rooms.GetRoom(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"})
		return nil, false
	}
	return rm, true
}

type swapRequest struct {
	Hand      []engine.Card `json:"hand"`
	Untouched []engine.Card `json:"untouched"`
}

// SwapHandler exchanges hand cards with untouched cards during the swap
// phase. The whole batch applies or none of it does.
func (s *Server) SwapHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req swapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewSwap(playerID, req.Hand, req.Untouched))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ReadyHandler locks in the caller's swaps. The lock-in that completes the
// table flips the game into the play phase.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewLockIn(playerID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type playCardRequest struct {
	Card          engine.Card `json:"card"`
	FromUntouched bool        `json:"from_untouched"`
	Slot          int         `json:"slot"`
}

// PlayCardHandler plays one card from the hand, or from an untouched slot by
// position once the deck and hand are exhausted.
func (s *Server) PlayCardHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req playCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	var cmd engine.PlayCardCmd
	if req.FromUntouched {
		cmd = engine.NewPlayUntouched(playerID, req.Slot)
	} else {
		cmd = engine.NewPlayCard(playerID, req.Card)
	}
	out, err := rm.Do(r.Context(), cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type playMultipleRequest struct {
	Cards []engine.Card `json:"cards"`
}

// PlayMultipleCardsHandler plays a run of equal-rank cards in one move.
func (s *Server) PlayMultipleCardsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req playMultipleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewPlayMultiple(playerID, req.Cards))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type playHiddenRequest struct {
	Slot int `json:"slot"`
}

// PlayHiddenHandler reveals and plays a hidden slot. The response reports
// whether the reveal was legal; either way the card is now face-up.
func (s *Server) PlayHiddenHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req playHiddenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewPlayHidden(playerID, req.Slot))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type takeFromCenterRequest struct {
	Card engine.Card `json:"card"`
}

// TakeFromCenterHandler collects the pile into the caller's hand in exchange
// for one chosen card.
func (s *Server) TakeFromCenterHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req takeFromCenterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewTakeFromCenter(playerID, req.Card))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// DrawCardHandler draws one random card from the deck. The drawn card is in
// the response only; broadcast events omit it.
func (s *Server) DrawCardHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	out, err := rm.Do(r.Context(), engine.NewDraw(playerID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GameStateHandler renders the caller's redacted view of the latest
// committed state. Other players' hands appear as counts, hidden slots as
// consumed markers.
func (s *Server) GameStateHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	view, err := rm.ViewFor(playerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteGameHandler tears the room down. Creator only.
func (s *Server) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	rm, ok := s.roomFor(w, r)
	if !ok {
		return
	}
	creator := rm.Snapshot().Creator()
	if creator == nil || creator.ID != playerID {
		writeError(w, &engine.Failure{Code: engine.Forbidden, Msg: "User is not the room creator."})
		return
	}
	if err := s.Rooms.DeleteRoom(r.Context(), rm.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
