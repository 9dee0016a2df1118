// internal/room/manager.go
package room

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/palacegame/palace/internal/cache"
	"github.com/palacegame/palace/internal/engine"
)

const (
	// DefaultMaxRooms caps how many live rooms the server hosts at once.
	DefaultMaxRooms = 50

	// IdleExpiry is how long an inactive room survives before the sweeper
	// removes it.
	IdleExpiry = 10 * time.Minute

	// EndedExpiry is how long a finished game lingers for the winner screen.
	EndedExpiry = 2 * time.Minute
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"
const codeLength = 6

// Manager owns the live room registry: creation, lookup, deletion, and the
// inactivity sweep. Each room it creates gets its own serializing worker.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*Room
	rng   *rand.Rand

	store    Store
	rules    *engine.Rules
	log      *logrus.Logger
	relay    func(ev Event)
	journal  func(rec cache.MoveRecord)
	maxRooms int
}

// NewManager builds a registry over the given persistence collaborator and
// rule configuration. relay may be nil (no notifications) as may journal.
func NewManager(store Store, rules *engine.Rules, log *logrus.Logger, relay func(Event), journal func(cache.MoveRecord)) *Manager {
	return &Manager{
		rooms:    make(map[string]*Room),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		store:    store,
		rules:    rules,
		log:      log,
		relay:    relay,
		journal:  journal,
		maxRooms: DefaultMaxRooms,
	}
}

// SetMaxRooms overrides the room cap.
func (m *Manager) SetMaxRooms(n int) { m.maxRooms = n }

func (m *Manager) newCodeLocked() string {
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
		}
		code := string(b)
		if _, exists := m.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom sweeps expired rooms, enforces the cap, then creates a fresh
// waiting-state room with the creator seated at index 0.
func (m *Manager) CreateRoom(ctx context.Context, username, passcodeHash string) (*Room, uuid.UUID, error) {
	m.sweep(ctx)

	m.mu.Lock()
	if len(m.rooms) >= m.maxRooms {
		m.mu.Unlock()
		return nil, uuid.Nil, &engine.Failure{Code: engine.ResourceExhausted, Msg: "Total number of games exceeded."}
	}
	code := m.newCodeLocked()
	gameRng := rand.New(rand.NewSource(m.rng.Int63()))
	m.mu.Unlock()

	g := engine.NewGame(code, m.rules, gameRng)
	creatorID := uuid.New()
	if err := g.AddPlayer(creatorID, username); err != nil {
		return nil, uuid.Nil, err
	}
	if err := m.store.Save(ctx, code, &State{Game: g, PasscodeHash: passcodeHash}); err != nil {
		return nil, uuid.Nil, &engine.Failure{Code: engine.PersistenceFailure, Msg: "Error with saving the game state."}
	}

	r := newRoom(code, passcodeHash, g, m.store, m.log.WithField("room", code), m.relay, m.journal)

	m.mu.Lock()
	m.rooms[code] = r
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"room": code, "creator": username}).Info("room created")
	return r, creatorID, nil
}

// GetRoom looks up a live room, rehydrating from the persistence
// collaborator when the registry misses (e.g. after a restart).
func (m *Manager) GetRoom(ctx context.Context, code string) (*Room, bool) {
	m.mu.Lock()
	if r, ok := m.rooms[code]; ok {
		m.mu.Unlock()
		return r, true
	}
	m.mu.Unlock()

	st, err := m.store.Load(ctx, code)
	if err != nil || st == nil || st.Game == nil {
		return nil, false
	}
	st.Game.Attach(m.rules, nil)

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[code]; ok {
		return r, true
	}
	r := newRoom(code, st.PasscodeHash, st.Game, m.store, m.log.WithField("room", code), m.relay, m.journal)
	m.rooms[code] = r
	return r, true
}

// DeleteRoom stops the worker and removes the persisted state.
func (m *Manager) DeleteRoom(ctx context.Context, code string) error {
	m.mu.Lock()
	r, ok := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()
	if ok {
		r.Close()
	}
	if err := m.store.Delete(ctx, code); err != nil {
		return &engine.Failure{Code: engine.PersistenceFailure, Msg: "Error with removing the game and users from the database."}
	}
	return nil
}

// Leave unseats the player and deletes the room when it empties out.
func (m *Manager) Leave(ctx context.Context, code string, id uuid.UUID) error {
	r, ok := m.GetRoom(ctx, code)
	if !ok {
		return &engine.Failure{Code: engine.NotFound, Msg: "Room does not exist!"}
	}
	if err := r.Leave(ctx, id); err != nil {
		return err
	}
	if len(r.Snapshot().Players) == 0 {
		return m.DeleteRoom(ctx, code)
	}
	return nil
}

// sweep removes rooms idle past IdleExpiry, and finished games past
// EndedExpiry. Persisted rooms that never made it back into the registry
// after a restart are expired through the store's own staleness scan.
func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	var expired []string
	now := time.Now()
	for code, r := range m.rooms {
		g := r.Snapshot()
		idle := now.Sub(g.LastActivity)
		if idle > IdleExpiry || (g.Phase == engine.PhaseEnded && idle > EndedExpiry) {
			expired = append(expired, code)
		}
	}
	m.mu.Unlock()

	if stale, err := m.store.Stale(ctx, now.Add(-IdleExpiry)); err != nil {
		m.log.WithError(err).Warn("failed to scan store for stale rooms")
	} else {
		m.mu.Lock()
		for _, code := range stale {
			if _, live := m.rooms[code]; !live {
				expired = append(expired, code)
			}
		}
		m.mu.Unlock()
	}

	for _, code := range expired {
		if err := m.DeleteRoom(ctx, code); err != nil {
			m.log.WithError(err).WithField("room", code).Warn("failed to sweep expired room")
			continue
		}
		m.log.WithField("room", code).Info("swept expired room")
	}
}

// SweepLoop runs the expiry sweep on a ticker until ctx is cancelled.
func (m *Manager) SweepLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweep(ctx)
		}
	}
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rooms)
}
