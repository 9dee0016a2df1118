// internal/room/events.go
package room

import (
	"github.com/google/uuid"

	"github.com/palacegame/palace/internal/engine"
)

// Event is the structured notification relayed to room members after a
// successful command. The room has no knowledge of the delivery mechanism;
// the relay decides who receives it.
type Event struct {
	Type     string        `json:"type"`
	RoomID   string        `json:"room_id"`
	Actor    uuid.UUID     `json:"-"`
	Player   string        `json:"player,omitempty"`
	Cards    []engine.Card `json:"cards,omitempty"`
	Revealed *engine.Card  `json:"revealed,omitempty"`
	Playable bool          `json:"playable,omitempty"`
	Burn     bool          `json:"burn,omitempty"`
	GoAgain  bool          `json:"go_again,omitempty"`
	Ready    bool          `json:"ready,omitempty"`
	Winner   string        `json:"winner,omitempty"`
}

// Event type names mirror the original socket channel.
const (
	EventPlayerJoin    = "player-join"
	EventPlayerLeave   = "player-leave"
	EventPlayerRemoved = "removed-player"
	EventGameStart     = "game-start"
	EventPlayerSwap    = "player-swap"
	EventPlayerReady   = "player-ready"
	EventPlayerPlayed  = "player-played"
	EventPlayedMult    = "player-played-mult"
	EventPlayedHidden  = "player-played-hidden"
	EventTookCenter    = "player-took-center"
	EventDrewCard      = "player-drew-card"
	EventGameWon       = "game-won"
)

var eventTypeByCommand = map[string]string{
	"start":            EventGameStart,
	"swap":             EventPlayerSwap,
	"lock_in":          EventPlayerReady,
	"play_card":        EventPlayerPlayed,
	"play_multiple":    EventPlayedMult,
	"play_hidden":      EventPlayedHidden,
	"take_from_center": EventTookCenter,
	"draw":             EventDrewCard,
	"join":             EventPlayerJoin,
	"leave":            EventPlayerLeave,
	"remove":           EventPlayerRemoved,
}

// eventFromOutcome translates an engine outcome into the relayed event.
// Private details (the drawn card) are stripped; hidden reveals and plays
// are public by nature.
func eventFromOutcome(roomID, username string, out *engine.Outcome) Event {
	ev := Event{
		Type:     eventTypeByCommand[out.Command],
		RoomID:   roomID,
		Actor:    out.PlayerID,
		Player:   username,
		Burn:     out.Burn,
		GoAgain:  out.GoAgain,
		Ready:    out.EveryoneReady,
		Revealed: out.Revealed,
		Playable: out.Playable,
	}
	if out.Command != "draw" {
		ev.Cards = out.Played
	}
	return ev
}
