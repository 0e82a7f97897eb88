package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
	"github.com/gokatarajesh/finlit-quiz/internal/game"
	"github.com/gokatarajesh/finlit-quiz/internal/metrics"
)

var (
	// ErrNotFound is returned when no session has the requested id.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidRecord wraps validation failures on a record about to be saved.
	ErrInvalidRecord = errors.New("invalid session record")
)

type sessionStore interface {
	Create(ctx context.Context, params queries.CreateSessionParams) (queries.Session, error)
	Get(ctx context.Context, id uuid.UUID) (queries.Session, error)
	List(ctx context.Context) ([]queries.Session, error)
}

type attemptStore interface {
	AddAttemptedLevel(ctx context.Context, id uuid.UUID, level int) error
}

// ResultRecorder receives every saved session (level statistics, live feed).
type ResultRecorder interface {
	RecordSession(ctx context.Context, rec Record) error
}

// Service persists finished play-throughs.
type Service struct {
	store    sessionStore
	attempts attemptStore
	recorder ResultRecorder
	logger   zerolog.Logger
}

// NewService constructs a session service. recorder may be nil.
func NewService(store sessionStore, attempts attemptStore, recorder ResultRecorder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		attempts: attempts,
		recorder: recorder,
		logger:   logger.With().Str("component", "sessions").Logger(),
	}
}

// Validate checks a record before it is written.
func Validate(r Record) error {
	if !catalog.Level(r.Level).Valid() {
		return fmt.Errorf("%w: level %d out of range", ErrInvalidRecord, r.Level)
	}
	if r.TotalQuestions < 0 || r.Score < 0 || r.Score > r.TotalQuestions {
		return fmt.Errorf("%w: score %d of %d", ErrInvalidRecord, r.Score, r.TotalQuestions)
	}
	if r.TimeTakenSeconds < 0 {
		return fmt.Errorf("%w: negative time taken", ErrInvalidRecord)
	}
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() && r.EndTime.Before(r.StartTime) {
		return fmt.Errorf("%w: end time before start time", ErrInvalidRecord)
	}
	if r.Email == "" && r.StudentID == "" && r.UserID == uuid.Nil {
		return fmt.Errorf("%w: missing student identity", ErrInvalidRecord)
	}
	return nil
}

// Save validates and stores rec, then marks the level attempted and notifies the recorder.
// Only the insert decides success; the follow-ups are logged on failure.
func (s *Service) Save(ctx context.Context, rec Record) (Record, error) {
	level := metrics.Level(rec.Level)
	if err := Validate(rec); err != nil {
		metrics.SessionsSaved.WithLabelValues(level, "invalid").Inc()
		return Record{}, err
	}

	params, err := createParams(rec)
	if err != nil {
		return Record{}, err
	}

	row, err := s.store.Create(ctx, params)
	if err != nil {
		metrics.SessionsSaved.WithLabelValues(level, metrics.Outcome(false)).Inc()
		return Record{}, fmt.Errorf("create session: %w", err)
	}
	saved, err := FromRow(row)
	if err != nil {
		return Record{}, err
	}
	metrics.SessionsSaved.WithLabelValues(level, metrics.Outcome(true)).Inc()

	if saved.UserID != uuid.Nil && s.attempts != nil {
		if err := s.attempts.AddAttemptedLevel(ctx, saved.UserID, saved.Level); err != nil {
			s.logger.Warn().Err(err).Str("user_id", saved.UserID.String()).Int("level", saved.Level).Msg("failed to mark level attempted")
		}
	}

	if s.recorder != nil {
		if err := s.recorder.RecordSession(ctx, saved); err != nil {
			s.logger.Warn().Err(err).Str("session_id", saved.ID.String()).Msg("failed to record session stats")
		}
	}

	s.logger.Info().
		Str("session_id", saved.ID.String()).
		Str("student", saved.DisplayName()).
		Int("level", saved.Level).
		Int("score", saved.Score).
		Int("total", saved.TotalQuestions).
		Msg("session saved")
	return saved, nil
}

// SaveSummary stores an engine summary. It is the persistence collaborator of game.Service.
func (s *Service) SaveSummary(ctx context.Context, summary game.Summary) error {
	_, err := s.Save(ctx, FromSummary(summary))
	return err
}

// Get returns one session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get session: %w", err)
	}
	return FromRow(row)
}

// List returns all sessions, newest first.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := FromRow(row)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skipping undecodable session row")
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
