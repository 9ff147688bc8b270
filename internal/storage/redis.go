package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/state"
	"github.com/jwebster45206/inquest-engine/pkg/storage"
)

const (
	// DefaultSessionTTL bounds how long an idle session survives.
	DefaultSessionTTL = 24 * time.Hour
	// DefaultPendingRollTTL bounds how long an unanswered roll stays claimable.
	DefaultPendingRollTTL = 30 * time.Minute

	dayLockTTL = 48 * time.Hour
)

// RedisStorage keeps the shared party state in Redis: sessions, pending
// rolls, world triggers, interaction counts and daily job claims.
type RedisStorage struct {
	client     *redis.Client
	logger     *slog.Logger
	sessionTTL time.Duration
	pendingTTL time.Duration
}

var (
	_ storage.SessionStore = (*RedisStorage)(nil)
	_ storage.Locker       = (*RedisStorage)(nil)
)

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if strings.Contains(redisURL, "://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis URL: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(client *redis.Client, pendingTTL time.Duration, logger *slog.Logger) *RedisStorage {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingRollTTL
	}
	return &RedisStorage{
		client:     client,
		logger:     logger,
		sessionTTL: DefaultSessionTTL,
		pendingTTL: pendingTTL,
	}
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func sessionKey(id uuid.UUID) string  { return "session:" + id.String() }
func triggersKey(id uuid.UUID) string { return "triggers:" + id.String() }
func countsKey(id uuid.UUID) string   { return "counts:" + id.String() }
func partyKey(id uuid.UUID) string    { return "party:" + id.String() }
func pendingKey(id uuid.UUID, playerID string) string {
	return "pending:" + id.String() + ":" + playerID
}

// Session operations

func (r *RedisStorage) SaveSession(ctx context.Context, s *state.Session) error {
	if s == nil {
		return fmt.Errorf("session cannot be nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.sessionTTL).Err(); err != nil {
		r.logger.Error("Failed to save session", "session_id", s.ID, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var s state.Session
	if err := json.Unmarshal(data, &s); err != nil {
		r.logger.Error("Failed to unmarshal session", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	keys := []string{sessionKey(id), triggersKey(id), countsKey(id), partyKey(id)}
	iter := r.client.Scan(ctx, 0, "pending:"+id.String()+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan pending rolls: %w", err)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	r.logger.Debug("Session deleted", "session_id", id, "keys", len(keys))
	return nil
}

// Pending rolls

func (r *RedisStorage) PutPendingRoll(ctx context.Context, roll *state.PendingRoll) error {
	if roll == nil {
		return fmt.Errorf("pending roll cannot be nil")
	}
	data, err := json.Marshal(roll)
	if err != nil {
		return fmt.Errorf("failed to marshal pending roll: %w", err)
	}
	if err := r.client.Set(ctx, pendingKey(roll.SessionID, roll.PlayerID), data, r.pendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to save pending roll: %w", err)
	}
	return nil
}

// TakePendingRoll uses GETDEL so two concurrent submissions cannot both
// consume the same roll.
func (r *RedisStorage) TakePendingRoll(ctx context.Context, sessionID uuid.UUID, playerID string) (*state.PendingRoll, error) {
	data, err := r.client.GetDel(ctx, pendingKey(sessionID, playerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, engineerr.ErrNoPendingRoll
		}
		return nil, fmt.Errorf("failed to take pending roll: %w", err)
	}
	var roll state.PendingRoll
	if err := json.Unmarshal(data, &roll); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending roll: %w", err)
	}
	return &roll, nil
}

// Pending party actions

func (r *RedisStorage) PutPendingParty(ctx context.Context, action *state.PendingRoll) error {
	if action == nil {
		return fmt.Errorf("pending party action cannot be nil")
	}
	data, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("failed to marshal pending party action: %w", err)
	}
	if err := r.client.Set(ctx, partyKey(action.SessionID), data, r.pendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to save pending party action: %w", err)
	}
	return nil
}

func (r *RedisStorage) TakePendingParty(ctx context.Context, sessionID uuid.UUID) (*state.PendingRoll, error) {
	data, err := r.client.GetDel(ctx, partyKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, engineerr.ErrNoPendingRoll
		}
		return nil, fmt.Errorf("failed to take pending party action: %w", err)
	}
	var action state.PendingRoll
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending party action: %w", err)
	}
	return &action, nil
}

// World triggers

func (r *RedisStorage) Triggers(ctx context.Context, sessionID uuid.UUID) (map[string]bool, error) {
	names, err := r.client.SMembers(ctx, triggersKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read triggers: %w", err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out, nil
}

// UpdateTriggers applies the ops in order inside one MULTI block.
func (r *RedisStorage) UpdateTriggers(ctx context.Context, sessionID uuid.UUID, ops []storage.TriggerOp) error {
	if len(ops) == 0 {
		return nil
	}
	key := triggersKey(sessionID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			if op.Remove {
				pipe.SRem(ctx, key, op.Name)
			} else {
				pipe.SAdd(ctx, key, op.Name)
			}
		}
		pipe.Expire(ctx, key, r.sessionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update triggers: %w", err)
	}
	return nil
}

// Interaction counts

func (r *RedisStorage) IncrementCount(ctx context.Context, sessionID uuid.UUID, itemID string) (int, error) {
	key := countsKey(sessionID)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, itemID, 1)
		pipe.Expire(ctx, key, r.sessionTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment count: %w", err)
	}
	return int(incr.Val()), nil
}

func (r *RedisStorage) Counts(ctx context.Context, sessionID uuid.UUID) (map[string]int, error) {
	raw, err := r.client.HGetAll(ctx, countsKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read counts: %w", err)
	}
	out := make(map[string]int, len(raw))
	for item, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			r.logger.Warn("Ignoring non-numeric interaction count", "session_id", sessionID, "item_id", item, "value", v)
			continue
		}
		out[item] = n
	}
	return out, nil
}

// Daily job claims

func (r *RedisStorage) ClaimDay(ctx context.Context, job, day string) (bool, error) {
	ok, err := r.client.SetNX(ctx, "daylock:"+job+":"+day, time.Now().Unix(), dayLockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s for %s: %w", job, day, err)
	}
	return ok, nil
}
