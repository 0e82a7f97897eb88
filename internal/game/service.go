package game

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/metrics"
)

type engineStore interface {
	Lock(ctx context.Context, userID uuid.UUID) (func() error, error)
	Load(ctx context.Context, userID uuid.UUID) (*Engine, error)
	Save(ctx context.Context, userID uuid.UUID, engine *Engine) error
}

// SummarySaver persists a finished play-through.
type SummarySaver interface {
	SaveSummary(ctx context.Context, summary Summary) error
}

type attemptLookup interface {
	AttemptedLevels(ctx context.Context, lookup auth.AttemptLookup) ([]int, error)
}

// ServiceOptions configures gameplay.
type ServiceOptions struct {
	ItemsPerSession int
	AllowReplay     bool
	SavePolicy      SavePolicy
	Clock           func() time.Time
	Rand            Rand
}

// Service drives one engine per student, persisting snapshots between requests.
type Service struct {
	store    engineStore
	saver    SummarySaver
	attempts attemptLookup
	bank     *catalog.Bank
	opts     ServiceOptions
	logger   zerolog.Logger
}

// NewService wires the game service. attempts may be nil.
func NewService(store engineStore, saver SummarySaver, attempts attemptLookup, bank *catalog.Bank, opts ServiceOptions, logger zerolog.Logger) *Service {
	if opts.ItemsPerSession <= 0 {
		opts.ItemsPerSession = DefaultItemsPerSession
	}
	if opts.SavePolicy == "" {
		opts.SavePolicy = SaveBestEffort
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = GlobalRand
	}
	return &Service{
		store:    store,
		saver:    saver,
		attempts: attempts,
		bank:     bank,
		opts:     opts,
		logger:   logger.With().Str("component", "game").Logger(),
	}
}

// Bank returns the item bank the service plays from.
func (s *Service) Bank() *catalog.Bank {
	return s.bank
}

// StudentLoggedIn starts a fresh engine at level selection, replacing any stored one.
func (s *Service) StudentLoggedIn(ctx context.Context, student auth.Student) error {
	unlock, err := s.store.Lock(ctx, student.ID)
	if err != nil {
		return err
	}
	defer s.release(unlock, student.ID)

	engine := NewEngine()
	id := Identity{UserID: student.ID, Email: student.Email, StudentID: student.StudentID, Mobile: student.Mobile}
	if err := engine.Login(id, toLevels(student.AttemptedLevels)); err != nil {
		return err
	}
	return s.store.Save(ctx, student.ID, engine)
}

// View returns the current view, starting an engine when none is stored.
func (s *Service) View(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(*Engine) error { return nil })
}

// SelectLevel starts a play-through of level.
func (s *Service) SelectLevel(ctx context.Context, id Identity, level int) (View, error) {
	l := catalog.Level(level)
	if !l.Valid() {
		return View{}, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return s.do(ctx, id, func(e *Engine) error {
		if err := e.StartLevel(l, s.bank, s.opts.ItemsPerSession, s.opts.Rand, s.opts.Clock(), s.opts.AllowReplay); err != nil {
			return err
		}
		s.logger.Debug().Str("user_id", id.UserID.String()).Int("level", level).Int("items", e.Session.Total()).Msg("level started")
		return nil
	})
}

// SelectCategory applies a category press.
func (s *Service) SelectCategory(ctx context.Context, id Identity, raw string) (View, error) {
	c, err := catalog.ParseCategory(raw)
	if err != nil {
		return View{}, err
	}
	return s.do(ctx, id, func(e *Engine) error {
		return e.SelectCategory(c)
	})
}

// Submit grades the current selection.
func (s *Service) Submit(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		accepted, err := e.Submit()
		if err != nil {
			return err
		}
		if accepted {
			metrics.AnswersSubmitted.WithLabelValues(
				metrics.Level(int(e.Session.Level)),
				strconv.FormatBool(e.Session.LastCorrect),
			).Inc()
		}
		return nil
	})
}

// Next advances to the following item or ends the game.
func (s *Service) Next(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		return e.Next(s.opts.Clock())
	})
}

// ProceedToFeedback opens the feedback screen.
func (s *Service) ProceedToFeedback(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		return e.ProceedToFeedback()
	})
}

// SkipFeedback returns to level selection without saving.
func (s *Service) SkipFeedback(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		return e.SkipFeedback()
	})
}

// SubmitFeedback saves the session under the configured policy.
func (s *Service) SubmitFeedback(ctx context.Context, id Identity, text string) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		result, err := e.SubmitFeedback(text, s.opts.SavePolicy, func(summary Summary) error {
			if s.saver == nil {
				return errors.New("no session store configured")
			}
			return s.saver.SaveSummary(ctx, summary)
		})
		if result.Err != nil {
			s.logger.Error().Err(result.Err).
				Str("user_id", id.UserID.String()).
				Str("policy", string(s.opts.SavePolicy)).
				Msg("session save failed")
		}
		return err
	})
}

// BackToLevels leaves the report preview.
func (s *Service) BackToLevels(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		return e.BackToLevels()
	})
}

// Logout returns the engine to LOGIN.
func (s *Service) Logout(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		return e.Logout()
	})
}

// Reset recovers from any state, including an unknown one.
func (s *Service) Reset(ctx context.Context, id Identity) (View, error) {
	return s.do(ctx, id, func(e *Engine) error {
		e.Reset()
		return nil
	})
}

// do runs fn against the student's engine under the per-student lock.
// The snapshot is written back when fn succeeds or when a strict save failed,
// so the failure outcome is visible on the next read.
func (s *Service) do(ctx context.Context, id Identity, fn func(*Engine) error) (View, error) {
	unlock, err := s.store.Lock(ctx, id.UserID)
	if err != nil {
		return View{}, err
	}
	defer s.release(unlock, id.UserID)

	engine, err := s.store.Load(ctx, id.UserID)
	if err != nil {
		return View{}, err
	}
	if engine == nil {
		engine, err = s.begin(ctx, id)
		if err != nil {
			return View{}, err
		}
	}

	opErr := fn(engine)
	if opErr == nil || errors.Is(opErr, ErrSaveFailed) {
		if err := s.store.Save(ctx, id.UserID, engine); err != nil {
			return View{}, err
		}
	}
	return BuildView(engine, s.bank), opErr
}

func (s *Service) begin(ctx context.Context, id Identity) (*Engine, error) {
	var attempted []catalog.Level
	if s.attempts != nil {
		levels, err := s.attempts.AttemptedLevels(ctx, auth.AttemptLookup{UserID: id.UserID})
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", id.UserID.String()).Msg("attempted levels lookup failed")
		}
		attempted = toLevels(levels)
	}
	engine := NewEngine()
	if err := engine.Login(id, attempted); err != nil {
		return nil, err
	}
	return engine, nil
}

func (s *Service) release(unlock func() error, userID uuid.UUID) {
	if err := unlock(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to release game lock")
	}
}

func toLevels(levels []int) []catalog.Level {
	out := make([]catalog.Level, 0, len(levels))
	for _, l := range levels {
		out = append(out, catalog.Level(l))
	}
	return out
}
