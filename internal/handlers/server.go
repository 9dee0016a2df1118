// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/internal/middleware"
	"github.com/palacegame/palace/internal/room"
)

// Server bundles the room manager and websocket hub behind the HTTP API.
type Server struct {
	Rooms *room.Manager
	Hub   *Hub
	Log   *logrus.Logger
}

func NewServer(rooms *room.Manager, hub *Hub, log *logrus.Logger) *Server {
	return &Server{Rooms: rooms, Hub: hub, Log: log}
}

// Routes builds the full route table. Room endpoints manage membership;
// game endpoints submit engine commands; the ws endpoint streams events.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /room/create", s.CreateRoomHandler)
	mux.HandleFunc("POST /room/{id}/join", s.JoinRoomHandler)
	mux.HandleFunc("POST /room/{id}/leave", s.LeaveRoomHandler)
	mux.HandleFunc("POST /room/{id}/removePlayer", s.RemovePlayerHandler)
	mux.HandleFunc("PUT /room/{id}/start", s.StartGameHandler)

	mux.HandleFunc("PUT /game/{id}/swap", s.SwapHandler)
	mux.HandleFunc("PUT /game/{id}/ready", s.ReadyHandler)
	mux.HandleFunc("PUT /game/{id}/playCard", s.PlayCardHandler)
	mux.HandleFunc("PUT /game/{id}/playMultipleCards", s.PlayMultipleCardsHandler)
	mux.HandleFunc("PUT /game/{id}/playHidden", s.PlayHiddenHandler)
	mux.HandleFunc("PUT /game/{id}/takeFromCenter", s.TakeFromCenterHandler)
	mux.HandleFunc("PUT /game/{id}/drawCard", s.DrawCardHandler)
	mux.HandleFunc("GET /game/{id}/state", s.GameStateHandler)
	mux.HandleFunc("DELETE /game/{id}", s.DeleteGameHandler)

	mux.HandleFunc("GET /game/ws/{id}", s.GameWSHandler)

	return middleware.LogMiddleware(s.Log)(mux)
}
