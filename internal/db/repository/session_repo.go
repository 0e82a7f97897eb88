package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
)

type sessionStore interface {
	CreateSession(ctx context.Context, arg queries.CreateSessionParams) (queries.Session, error)
	GetSession(ctx context.Context, id pgtype.UUID) (queries.Session, error)
	ListSessions(ctx context.Context) ([]queries.Session, error)
}

// SessionRepository contains DB helpers for finished play-throughs.
type SessionRepository struct {
	store sessionStore
}

// NewSessionRepository constructs a new session repository.
func NewSessionRepository(store sessionStore) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create persists a session summary.
func (r *SessionRepository) Create(ctx context.Context, params queries.CreateSessionParams) (queries.Session, error) {
	return r.store.CreateSession(ctx, params)
}

// Get fetches one session.
func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (queries.Session, error) {
	return r.store.GetSession(ctx, pgUUID(id))
}

// List returns every session, newest first.
func (r *SessionRepository) List(ctx context.Context) ([]queries.Session, error) {
	rows, err := r.store.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []queries.Session{}
	}
	return rows, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
