// internal/room/store.go
package room

import (
	"context"
	"sync"
	"time"

	"github.com/palacegame/palace/internal/engine"
)

// State is the unit of persistence for one room: the full game state plus
// the room's own metadata. A Save applies the whole delta atomically or not
// at all; partial writes are a contract violation the engine does not
// tolerate.
type State struct {
	Game         *engine.Game `json:"game"`
	PasscodeHash string       `json:"passcode_hash,omitempty"`
}

// Store is the persistence collaborator. The pgx-backed implementation lives
// in internal/database; MemoryStore backs tests and passcode-free dev runs.
type Store interface {
	Save(ctx context.Context, code string, st *State) error
	Load(ctx context.Context, code string) (*State, error)
	Delete(ctx context.Context, code string) error
	// Stale lists room codes whose persisted state was last written before
	// cutoff. The sweeper uses it to expire rooms that were never rehydrated
	// into a registry after a restart.
	Stale(ctx context.Context, cutoff time.Time) ([]string, error)
}

// MemoryStore keeps serialized room states in a map.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (s *MemoryStore) Save(_ context.Context, code string, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[code] = State{Game: st.Game.Clone(), PasscodeHash: st.PasscodeHash}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, code string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[code]
	if !ok {
		return nil, nil
	}
	return &State{Game: st.Game.Clone(), PasscodeHash: st.PasscodeHash}, nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, code)
	return nil
}

func (s *MemoryStore) Stale(_ context.Context, cutoff time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var codes []string
	for code, st := range s.states {
		if st.Game != nil && st.Game.LastActivity.Before(cutoff) {
			codes = append(codes, code)
		}
	}
	return codes, nil
}
