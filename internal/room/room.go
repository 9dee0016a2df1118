// internal/room/room.go
package room

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/internal/cache"
	"github.com/palacegame/palace/internal/engine"
)

// Room serializes every mutating command for one game through a single
// worker goroutine: at most one mutation is in flight at a time, so
// read-modify-write sequences (draws, pile moves, turn advances) are atomic
// with respect to concurrent requests from different players.
//
// Mutations run against a clone of the state and are committed only after
// the persistence collaborator accepts the full delta, so a rejected save
// leaves the room exactly as it was. Read-only queries are served from an
// atomically swapped snapshot and never observe a partial write.
type Room struct {
	Code string

	passcodeHash string
	store        Store
	log          logrus.FieldLogger
	relay        func(Event)
	journal      func(cache.MoveRecord)

	game     *engine.Game
	snapshot atomic.Pointer[engine.Game]
	requests chan request
	done     chan struct{}
	stopOnce sync.Once
	seq      int
}

type result struct {
	out *engine.Outcome
	err error
}

type request struct {
	ctx  context.Context
	fn   func(g *engine.Game) (*engine.Outcome, error)
	resp chan result
}

func newRoom(code, passcodeHash string, g *engine.Game, store Store, log logrus.FieldLogger, relay func(Event), journal func(cache.MoveRecord)) *Room {
	r := &Room{
		Code:         code,
		passcodeHash: passcodeHash,
		store:        store,
		log:          log,
		relay:        relay,
		journal:      journal,
		game:         g,
		requests:     make(chan request),
		done:         make(chan struct{}),
	}
	r.snapshot.Store(g.Clone())
	go r.run()
	return r
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case req := <-r.requests:
			// Close may race the request send; re-check before mutating.
			select {
			case <-r.done:
				req.resp <- result{nil, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"}}
			default:
				req.resp <- r.handle(req)
			}
		}
	}
}

func (r *Room) handle(req request) result {
	working := r.game.Clone()
	out, err := req.fn(working)
	if err != nil {
		return result{nil, err}
	}

	if err := r.store.Save(req.ctx, r.Code, &State{Game: working, PasscodeHash: r.passcodeHash}); err != nil {
		r.log.WithError(err).WithField("room", r.Code).Error("failed to persist room state")
		return result{nil, &engine.Failure{Code: engine.PersistenceFailure, Msg: "Error with saving the game state."}}
	}

	prev := r.game
	r.game = working
	r.snapshot.Store(working.Clone())

	r.seq++
	if r.journal != nil {
		r.journal(cache.MoveRecord{
			RoomID:    r.Code,
			Seq:       r.seq,
			ActorID:   out.PlayerID,
			Command:   out.Command,
			Burn:      out.Burn,
			GoAgain:   out.GoAgain,
			Timestamp: time.Now().UnixMilli(),
		})
	}
	if r.relay != nil {
		username := usernameFor(working, prev, out.PlayerID)
		r.relay(eventFromOutcome(r.Code, username, out))
		if out.Winner != nil {
			r.relay(Event{
				Type:   EventGameWon,
				RoomID: r.Code,
				Winner: usernameFor(working, prev, *out.Winner),
			})
		}
	}
	return result{out, nil}
}

func usernameFor(next, prev *engine.Game, id uuid.UUID) string {
	for _, g := range []*engine.Game{next, prev} {
		for _, p := range g.Players {
			if p.ID == id {
				return p.Username
			}
		}
	}
	return ""
}

func (r *Room) mutate(ctx context.Context, fn func(g *engine.Game) (*engine.Outcome, error)) (*engine.Outcome, error) {
	req := request{ctx: ctx, fn: fn, resp: make(chan result, 1)}
	select {
	case r.requests <- req:
	case <-r.done:
		return nil, &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-req.resp:
		return res.out, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Do schedules one engine command on the room's worker and waits for its
// outcome. Every command completes synchronously once scheduled; nothing is
// retried on failure.
func (r *Room) Do(ctx context.Context, cmd engine.Command) (*engine.Outcome, error) {
	return r.mutate(ctx, func(g *engine.Game) (*engine.Outcome, error) {
		return g.Apply(cmd)
	})
}

// Join seats a new player while the room is waiting.
func (r *Room) Join(ctx context.Context, id uuid.UUID, username string) error {
	_, err := r.mutate(ctx, func(g *engine.Game) (*engine.Outcome, error) {
		if err := g.AddPlayer(id, username); err != nil {
			return nil, err
		}
		return &engine.Outcome{Command: "join", PlayerID: id}, nil
	})
	return err
}

// Leave unseats a player while the room is waiting.
func (r *Room) Leave(ctx context.Context, id uuid.UUID) error {
	_, err := r.mutate(ctx, func(g *engine.Game) (*engine.Outcome, error) {
		if err := g.RemovePlayer(id); err != nil {
			return nil, err
		}
		return &engine.Outcome{Command: "leave", PlayerID: id}, nil
	})
	return err
}

// RemovePlayer kicks the named player. Creator-only, waiting phase only, and
// never the creator themselves.
func (r *Room) RemovePlayer(ctx context.Context, caller uuid.UUID, username string) error {
	_, err := r.mutate(ctx, func(g *engine.Game) (*engine.Outcome, error) {
		creator := g.Creator()
		if creator == nil || creator.ID != caller {
			return nil, &engine.Failure{Code: engine.Forbidden, Msg: "User is not the room creator."}
		}
		var target *engine.Player
		for _, p := range g.Players {
			if p.Username == username {
				target = p
				break
			}
		}
		if target == nil {
			return nil, &engine.Failure{Code: engine.NotFound, Msg: "Player not found!"}
		}
		if target.ID == caller {
			return nil, &engine.Failure{Code: engine.InvalidSelection, Msg: "Cannot delete yourself from the room!"}
		}
		if err := g.RemovePlayer(target.ID); err != nil {
			return nil, err
		}
		return &engine.Outcome{Command: "remove", PlayerID: target.ID}, nil
	})
	return err
}

// Snapshot returns the room's latest committed state. The returned value is
// a private deep copy; callers may read it freely.
func (r *Room) Snapshot() *engine.Game { return r.snapshot.Load() }

// ViewFor renders the member's redacted view from the latest snapshot.
func (r *Room) ViewFor(viewer uuid.UUID) (*engine.View, error) {
	return r.Snapshot().ViewFor(viewer)
}

// PasscodeHash returns the room's Argon2id passcode hash, or "" for an open
// room.
func (r *Room) PasscodeHash() string { return r.passcodeHash }

// Close stops the worker. Pending and future calls fail with NotFound.
func (r *Room) Close() {
	r.stopOnce.Do(func() { close(r.done) })
}
