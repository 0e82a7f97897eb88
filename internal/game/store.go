package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrBusy is returned when another request holds the student's engine lock.
var ErrBusy = errors.New("game state is locked by another request")

const (
	defaultStateTTL = 24 * time.Hour
	lockTTL         = 10 * time.Second
)

var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// StateStore keeps one engine snapshot per student in Redis with a per-student lock.
type StateStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStateStore creates a store backed by Redis. A zero ttl uses 24h.
func NewStateStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *StateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &StateStore{
		redis:  client,
		ttl:    ttl,
		logger: logger.With().Str("component", "game_state").Logger(),
	}
}

func engineKey(userID uuid.UUID) string {
	return fmt.Sprintf("game:engine:%s", userID.String())
}

func lockKey(userID uuid.UUID) string {
	return fmt.Sprintf("game:lock:%s", userID.String())
}

// Lock acquires the student's engine lock. The returned func releases it
// only if it is still ours.
func (s *StateStore) Lock(ctx context.Context, userID uuid.UUID) (func() error, error) {
	key := lockKey(userID)
	value := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, value, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrBusy
	}

	return func() error {
		// fresh context: the request one may already be cancelled
		unlockCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return unlockScript.Run(unlockCtx, s.redis, []string{key}, value).Err()
	}, nil
}

// Load returns the stored engine or nil when none exists.
func (s *StateStore) Load(ctx context.Context, userID uuid.UUID) (*Engine, error) {
	data, err := s.redis.Get(ctx, engineKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get engine: %w", err)
	}

	var engine Engine
	if err := json.Unmarshal(data, &engine); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("discarding corrupted engine snapshot")
		return nil, nil
	}
	return &engine, nil
}

// Save writes the engine snapshot and refreshes its TTL.
func (s *StateStore) Save(ctx context.Context, userID uuid.UUID, engine *Engine) error {
	data, err := json.Marshal(engine)
	if err != nil {
		return fmt.Errorf("marshal engine: %w", err)
	}
	if err := s.redis.Set(ctx, engineKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set engine: %w", err)
	}
	return nil
}
