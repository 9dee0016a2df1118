// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup;
// when nil, move journaling is disabled.
var Rdb *redis.Client

// DefaultQueueName is the Redis list the move journal is pushed onto.
var DefaultQueueName = "palace_moves"

// MoveRecord is one applied command, in the shape the external historian
// consumes. Seq increments per room.
type MoveRecord struct {
	RoomID    string    `json:"room_id"`
	Seq       int       `json:"seq"`
	ActorID   uuid.UUID `json:"actor_id"`
	Command   string    `json:"command"`
	Burn      bool      `json:"burn,omitempty"`
	GoAgain   bool      `json:"go_again,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client from environment
// variables: REDIS_ADDR (default "localhost:6379") and REDIS_DB (default 0).
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishMove serializes the record and pushes it onto the journal queue.
// A quick network send; never blocks game logic beyond that.
func PublishMove(ctx context.Context, record MoveRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal MoveRecord: %w", err)
	}

	queueName := getEnv("MOVE_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
