// internal/handlers/room.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/palacegame/palace/internal/auth"
	"github.com/palacegame/palace/internal/engine"
	"github.com/palacegame/palace/internal/room"
)

type createRoomRequest struct {
	Username string `json:"username"`
	Passcode string `json:"passcode,omitempty"`
}

type joinRoomRequest struct {
	Username string `json:"username"`
	Passcode string `json:"passcode,omitempty"`
}

type membershipResponse struct {
	RoomID  string   `json:"room_id"`
	UserID  string   `json:"user_id"`
	Token   string   `json:"token"`
	Players []string `json:"players"`
}

// CreateRoomHandler creates a room with the caller as creator and returns
// their session token. An optional passcode locks the room.
func (s *Server) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, &engine.Failure{Code: engine.InvalidSelection, Msg: "Username is required."})
		return
	}

	var passcodeHash string
	if req.Passcode != "" {
		h, err := auth.HashPasscode(req.Passcode)
		if err != nil {
			s.Log.WithError(err).Error("failed to hash room passcode")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create room."})
			return
		}
		passcodeHash = h
	}

	rm, creatorID, err := s.Rooms.CreateRoom(r.Context(), req.Username, passcodeHash)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.CreateJWT(creatorID)
	if err != nil {
		s.Log.WithError(err).Error("failed to mint session token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create room."})
		return
	}

	writeJSON(w, http.StatusCreated, membershipResponse{
		RoomID:  rm.Code,
		UserID:  creatorID.String(),
		Token:   token,
		Players: usernames(rm),
	})
}

// JoinRoomHandler seats a new player in a waiting room, verifying the
// passcode when the room has one.
func (s *Server) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, &engine.Failure{Code: engine.InvalidSelection, Msg: "Username is required."})
		return
	}

	rm, ok := s.Rooms.GetRoom(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"})
		return
	}

	if hash := rm.PasscodeHash(); hash != "" {
		match, err := auth.VerifyPasscode(req.Passcode, hash)
		if err != nil || !match {
			writeError(w, &engine.Failure{Code: engine.Forbidden, Msg: "Incorrect room passcode."})
			return
		}
	}

	playerID := uuid.New()
	if err := rm.Join(r.Context(), playerID, req.Username); err != nil {
		writeError(w, err)
		return
	}

	token, err := auth.CreateJWT(playerID)
	if err != nil {
		s.Log.WithError(err).Error("failed to mint session token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to join room."})
		return
	}

	writeJSON(w, http.StatusOK, membershipResponse{
		RoomID:  rm.Code,
		UserID:  playerID.String(),
		Token:   token,
		Players: usernames(rm),
	})
}

// LeaveRoomHandler unseats the caller; the room is torn down when the last
// player leaves.
func (s *Server) LeaveRoomHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	if err := s.Rooms.Leave(r.Context(), r.PathValue("id"), playerID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type removePlayerRequest struct {
	Username string `json:"username"`
}

// RemovePlayerHandler lets the creator kick another player by username while
// the room is still waiting.
func (s *Server) RemovePlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	var req removePlayerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	rm, ok := s.Rooms.GetRoom(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"})
		return
	}
	if err := rm.RemovePlayer(r.Context(), playerID, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// StartGameHandler deals the game and opens the swap phase. Creator only.
func (s *Server) StartGameHandler(w http.ResponseWriter, r *http.Request) {
	playerID, ok := authedPlayer(w, r)
	if !ok {
		return
	}
	rm, ok := s.Rooms.GetRoom(r.Context(), r.PathValue("id"))
	if !ok {
		writeError(w, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"})
		return
	}
	out, err := rm.Do(r.Context(), engine.NewStart(playerID))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func usernames(rm *room.Room) []string {
	g := rm.Snapshot()
	names := make([]string, 0, len(g.Players))
	for _, p := range g.Players {
		names = append(names, p.Username)
	}
	return names
}
