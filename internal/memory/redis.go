package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"agent_orchestrator/internal/core"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis-backed store.
type RedisOptions struct {
	// TTL applied to each session key, refreshed on every read.
	TTL time.Duration
}

// sessionRecord is the marshaled shape of a session's full history.
type sessionRecord struct {
	Turns []core.Turn `json:"turns"`
}

// RedisStore keeps session history under session:<id> keys with a TTL,
// so idle conversations age out without an explicit reset.
type RedisStore struct {
	client      *redis.Client
	ttl         time.Duration
	windowTurns int
}

// NewRedisStore connects to the Redis instance named by REDIS_URL and
// verifies the connection before returning.
func NewRedisStore(ctx context.Context, windowTurns int, opts RedisOptions) (*RedisStore, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("%w: REDIS_URL environment variable is required", core.ErrConfiguration)
	}

	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client:      client,
		ttl:         opts.TTL,
		windowTurns: windowTurns,
	}, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (r *RedisStore) load(ctx context.Context, sessionID string) (*sessionRecord, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return &sessionRecord{}, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record sessionRecord
	if err := sonic.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	r.client.Expire(ctx, sessionKey(sessionID), r.ttl)
	return &record, nil
}

func (r *RedisStore) save(ctx context.Context, sessionID string, record *sessionRecord) error {
	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Append adds a completed turn to the session's history.
func (r *RedisStore) Append(ctx context.Context, sessionID string, turn core.Turn) error {
	record, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	record.Turns = append(record.Turns, turn)
	return r.save(ctx, sessionID, record)
}

// Window returns a snapshot of the last windowTurns turns.
func (r *RedisStore) Window(ctx context.Context, sessionID string) (ContextWindow, error) {
	record, err := r.load(ctx, sessionID)
	if err != nil {
		return ContextWindow{}, err
	}
	return ContextWindow{Turns: tail(record.Turns, r.windowTurns)}, nil
}

// Reset deletes the session key. Deleting a missing key is a no-op.
func (r *RedisStore) Reset(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	return nil
}

// Stats returns turn and per-route counts over the full history.
func (r *RedisStore) Stats(ctx context.Context, sessionID string) (Stats, error) {
	record, err := r.load(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(record.Turns), nil
}

// Close releases the underlying Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
