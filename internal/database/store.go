// internal/database/store.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/palacegame/palace/internal/room"
)

// GameStore implements room.Store on Postgres. Each Save writes the room's
// entire state as one jsonb upsert inside a transaction, so the engine's
// full command delta lands atomically or not at all.
type GameStore struct {
	pool *pgxpool.Pool
}

func NewGameStore(pool *pgxpool.Pool) *GameStore {
	return &GameStore{pool: pool}
}

func (s *GameStore) Save(ctx context.Context, code string, st *room.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal room state: %w", err)
	}
	q := `
		INSERT INTO rooms (code, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (code)
		DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, code, data)
		return e
	})
	if err != nil {
		return fmt.Errorf("tx upsert room state: %w", err)
	}
	return nil
}

func (s *GameStore) Load(ctx context.Context, code string) (*room.State, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM rooms WHERE code = $1`, code).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query room state: %w", err)
	}
	var st room.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room state: %w", err)
	}
	return &st, nil
}

func (s *GameStore) Stale(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT code FROM rooms WHERE updated_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query stale rooms: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan stale room code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale rooms: %w", err)
	}
	return codes, nil
}

func (s *GameStore) Delete(ctx context.Context, code string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE code = $1`, code); err != nil {
		return fmt.Errorf("delete room state: %w", err)
	}
	return nil
}
