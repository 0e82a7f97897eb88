package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
)

type sessionLister interface {
	List(ctx context.Context) ([]sessions.Record, error)
}

// RebuildWorker periodically rebuilds the Redis level stats from the sessions table,
// so standings survive a Redis flush.
type RebuildWorker struct {
	svc      *Service
	sessions sessionLister
	logger   zerolog.Logger
	interval time.Duration
}

// NewRebuildWorker constructs a RebuildWorker.
func NewRebuildWorker(svc *Service, sessions sessionLister, interval time.Duration, logger zerolog.Logger) *RebuildWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &RebuildWorker{
		svc:      svc,
		sessions: sessions,
		logger:   logger.With().Str("component", "stats_rebuild_worker").Logger(),
		interval: interval,
	}
}

// Run blocks until context cancellation.
func (w *RebuildWorker) Run(ctx context.Context) error {
	if w.svc == nil || w.sessions == nil {
		return nil
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// run immediately
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RebuildWorker) tick(ctx context.Context) {
	records, err := w.sessions.List(ctx)
	if err != nil {
		w.logger.Warn().Err(err).Msg("failed to list sessions for stats rebuild")
		return
	}
	levels := aggregate(records)
	if err := w.svc.Replace(ctx, levels); err != nil {
		w.logger.Warn().Err(err).Msg("stats rebuild failed")
		return
	}
	w.logger.Info().Int("sessions", len(records)).Int("levels", len(levels)).Msg("level stats rebuilt")
}

// Replace overwrites the stats of every level present in levels.
func (s *Service) Replace(ctx context.Context, levels map[int][]Entry) error {
	for level, entries := range levels {
		zKey := s.levelKey(level)

		pipe := s.redis.TxPipeline()
		pipe.Del(ctx, zKey)
		for _, e := range entries {
			pipe.ZAdd(ctx, zKey, redis.Z{Score: float64(e.BestScore), Member: e.UserID.String()})
			pipe.HSet(ctx, s.metaKey(level, e.UserID), map[string]interface{}{
				"display_name": e.DisplayName,
				"attempts":     e.Attempts,
			})
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("replace level %d stats: %w", level, err)
		}
	}
	return nil
}

// aggregate folds session records into per-level standings, best score first.
func aggregate(records []sessions.Record) map[int][]Entry {
	type key struct {
		level  int
		userID uuid.UUID
	}
	byKey := make(map[key]*Entry)
	for _, rec := range records {
		if !catalog.Level(rec.Level).Valid() || rec.UserID == uuid.Nil {
			continue
		}
		k := key{level: rec.Level, userID: rec.UserID}
		e, ok := byKey[k]
		if !ok {
			e = &Entry{UserID: rec.UserID, DisplayName: rec.DisplayName(), BestScore: rec.Score}
			byKey[k] = e
		}
		e.Attempts++
		if rec.Score > e.BestScore {
			e.BestScore = rec.Score
		}
	}

	levels := make(map[int][]Entry)
	for k, e := range byKey {
		levels[k.level] = append(levels[k.level], *e)
	}
	for _, entries := range levels {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].BestScore != entries[j].BestScore {
				return entries[i].BestScore > entries[j].BestScore
			}
			return entries[i].UserID.String() < entries[j].UserID.String()
		})
	}
	return levels
}
