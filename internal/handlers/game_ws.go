// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/internal/auth"
	"github.com/palacegame/palace/internal/middleware"
	"github.com/palacegame/palace/internal/room"
)

// Hub fans room events out to connected websocket clients. It is the
// manager's relay: the room layer hands it an event, the hub decides who
// hears it (everyone in the room except the actor).
type Hub struct {
	log *logrus.Logger

	mu    sync.Mutex
	rooms map[string]map[*wsClient]struct{}
}

type wsClient struct {
	conn     *websocket.Conn
	playerID uuid.UUID
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{log: log, rooms: make(map[string]map[*wsClient]struct{})}
}

func (h *Hub) register(code string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*wsClient]struct{})
	}
	h.rooms[code][c] = struct{}{}
}

func (h *Hub) unregister(code string, c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[code]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, code)
		}
	}
}

// Publish sends the event to every connected member of the room except the
// actor, who already has the command's outcome in their HTTP response.
func (h *Hub) Publish(ev room.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal room event")
		return
	}

	h.mu.Lock()
	targets := make([]*wsClient, 0, len(h.rooms[ev.RoomID]))
	for c := range h.rooms[ev.RoomID] {
		if c.playerID == ev.Actor {
			continue
		}
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		go func(c *wsClient) {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
				h.log.WithError(err).WithField("room", ev.RoomID).Debug("dropping slow websocket write")
			}
		}(c)
	}
}

// GameWSHandler upgrades a room member's connection and streams events until
// the client disconnects. Authentication is the session token minted on
// create/join, passed as the "token" query parameter.
func (s *Server) GameWSHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := auth.AuthenticateJWT(bearerToken(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	code := r.PathValue("id")
	rm, ok := s.Rooms.GetRoom(r.Context(), code)
	if !ok {
		http.Error(w, "Room does not exist!", http.StatusNotFound)
		return
	}

	member := false
	for _, p := range rm.Snapshot().Players {
		if p.ID == playerID {
			member = true
			break
		}
	}
	if !member {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: []string{"game"},
	})
	if err != nil {
		s.Log.WithError(err).Warn("websocket accept failed")
		return
	}
	middleware.LogWebSocketConnect(s.Log, code, r.RemoteAddr)

	client := &wsClient{conn: conn, playerID: playerID}
	s.Hub.register(code, client)
	defer func() {
		s.Hub.unregister(code, client)
		conn.Close(websocket.StatusNormalClosure, "closing")
	}()

	// The stream is server-to-client; the read loop only services pings and
	// detects disconnects.
	ctx := r.Context()
	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			middleware.LogWebSocketDisconnect(s.Log, code, r.RemoteAddr, err)
			return
		}
		if typ == websocket.MessageText && string(msg) == "ping" {
			writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			_ = conn.Write(writeCtx, websocket.MessageText, []byte("pong"))
			cancel()
		}
	}
}
