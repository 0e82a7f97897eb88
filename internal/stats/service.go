package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/game/scoring"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
	ws "github.com/gokatarajesh/finlit-quiz/pkg/http/ws"
)

// ErrInvalidLevel is returned for a level outside the catalog range.
var ErrInvalidLevel = errors.New("invalid level")

// Entry is a student's standing on one level.
type Entry struct {
	UserID      uuid.UUID
	DisplayName string
	BestScore   int
	Attempts    int
}

// ServiceOptions configures level stats behaviour.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	RedisKeyPrefix string
}

// Service keeps the best score per student and level in Redis sorted sets
// and announces every saved session over Pub/Sub.
type Service struct {
	redis   *redis.Client
	logger  zerolog.Logger
	topN    int
	channel string
	prefix  string
	now     func() time.Time
}

// NewService constructs a level stats service.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "finlit:sessions"
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "stats"
	}

	return &Service{
		redis:   redis,
		logger:  logger.With().Str("component", "stats").Logger(),
		topN:    topN,
		channel: channel,
		prefix:  prefix,
		now:     time.Now,
	}
}

// Channel is the Pub/Sub channel session events are published on.
func (s *Service) Channel() string {
	return s.channel
}

// RecordSession implements sessions.ResultRecorder.
func (s *Service) RecordSession(ctx context.Context, rec sessions.Record) error {
	if !catalog.Level(rec.Level).Valid() {
		return ErrInvalidLevel
	}

	zKey := s.levelKey(rec.Level)
	metaKey := s.metaKey(rec.Level, rec.UserID)

	pipe := s.redis.TxPipeline()
	pipe.ZAddGT(ctx, zKey, redis.Z{Score: float64(rec.Score), Member: rec.UserID.String()})
	pipe.HIncrBy(ctx, metaKey, "attempts", 1)
	pipe.HSet(ctx, metaKey, map[string]interface{}{
		"display_name": rec.DisplayName(),
		"last_score":   rec.Score,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update level %d stats: %w", rec.Level, err)
	}

	go s.publishSaved(context.WithoutCancel(ctx), rec)
	return nil
}

// Top returns the best students on a level, highest score first.
func (s *Service) Top(ctx context.Context, level, limit int) ([]Entry, error) {
	if !catalog.Level(level).Valid() {
		return nil, ErrInvalidLevel
	}
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	results, err := s.redis.ZRevRangeWithScores(ctx, s.levelKey(level), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch level stats: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, _ := z.Member.(string)
		userID, err := uuid.Parse(member)
		if err != nil {
			s.logger.Warn().Str("member", member).Msg("skipping malformed stats member")
			continue
		}
		entry, err := s.readMeta(ctx, level, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read stats metadata")
			continue
		}
		entry.BestScore = int(z.Score)
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Service) publishSaved(ctx context.Context, rec sessions.Record) {
	data, err := json.Marshal(savedPayload(rec, s.now()))
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to marshal session event")
		return
	}
	if err := s.redis.Publish(ctx, s.channel, data).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish session event")
	}
}

func (s *Service) readMeta(ctx context.Context, level int, userID uuid.UUID) (Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(level, userID)).Result()
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		UserID:      userID,
		DisplayName: data["display_name"],
		Attempts:    parseInt(data["attempts"]),
	}, nil
}

func (s *Service) levelKey(level int) string {
	return fmt.Sprintf("%s:level:%d", s.prefix, level)
}

func (s *Service) metaKey(level int, userID uuid.UUID) string {
	return fmt.Sprintf("%s:level:%d:meta:%s", s.prefix, level, userID.String())
}

func savedPayload(rec sessions.Record, savedAt time.Time) ws.SessionSavedPayload {
	return ws.SessionSavedPayload{
		SessionID:      rec.ID.String(),
		UserID:         rec.UserID.String(),
		DisplayName:    rec.DisplayName(),
		Level:          rec.Level,
		Score:          rec.Score,
		TotalQuestions: rec.TotalQuestions,
		Percentage:     scoring.Percentage(rec.Score, rec.TotalQuestions),
		SavedAt:        savedAt.UTC().Format(time.RFC3339),
	}
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
