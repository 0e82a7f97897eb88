package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
)

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) CreateSession(ctx context.Context, arg queries.CreateSessionParams) (queries.Session, error) {
	args := m.Called(ctx, arg)
	return args.Get(0).(queries.Session), args.Error(1)
}

func (m *mockSessionStore) GetSession(ctx context.Context, id pgtype.UUID) (queries.Session, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(queries.Session), args.Error(1)
}

func (m *mockSessionStore) ListSessions(ctx context.Context) ([]queries.Session, error) {
	args := m.Called(ctx)
	var rows []queries.Session
	if v := args.Get(0); v != nil {
		rows = v.([]queries.Session)
	}
	return rows, args.Error(1)
}

func TestSessionRepository_Create(t *testing.T) {
	store := new(mockSessionStore)
	repo := NewSessionRepository(store)

	params := queries.CreateSessionParams{
		StudentID:      pgtype.Text{String: "S1", Valid: true},
		Level:          2,
		Score:          7,
		TotalQuestions: 10,
		Answers:        []byte(`[]`),
	}
	expect := queries.Session{ID: pgUUIDFromByte(1), Level: 2, Score: 7}
	store.On("CreateSession", mock.Anything, params).Return(expect, nil)

	got, err := repo.Create(context.Background(), params)

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
	store.AssertExpectations(t)
}

func TestSessionRepository_Get(t *testing.T) {
	store := new(mockSessionStore)
	repo := NewSessionRepository(store)

	expect := queries.Session{ID: pgUUIDFromByte(5)}
	store.On("GetSession", mock.Anything, pgUUIDFromByte(5)).Return(expect, nil)

	got, err := repo.Get(context.Background(), uuidFromByte(5))

	assert.NoError(t, err)
	assert.Equal(t, expect, got)
}

func TestSessionRepository_ListEmptyIsNotNil(t *testing.T) {
	store := new(mockSessionStore)
	repo := NewSessionRepository(store)

	store.On("ListSessions", mock.Anything).Return(nil, nil)

	got, err := repo.List(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSessionRepository_ListError(t *testing.T) {
	store := new(mockSessionStore)
	repo := NewSessionRepository(store)

	store.On("ListSessions", mock.Anything).Return(nil, errors.New("db down"))

	_, err := repo.List(context.Background())
	assert.Error(t, err)
}
