package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
)

type studentStore interface {
	CreateStudent(ctx context.Context, arg queries.CreateStudentParams) (queries.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (queries.Student, error)
	GetStudentByID(ctx context.Context, id pgtype.UUID) (queries.Student, error)
	GetStudentByStudentID(ctx context.Context, studentID pgtype.Text) (queries.Student, error)
	AddAttemptedLevel(ctx context.Context, arg queries.AddAttemptedLevelParams) error
}

// StudentRepository exposes typed DB operations required by auth flows.
type StudentRepository struct {
	store studentStore
}

// NewStudentRepository wraps Queries for student-specific operations.
func NewStudentRepository(store studentStore) *StudentRepository {
	return &StudentRepository{store: store}
}

// Create inserts a student account.
func (r *StudentRepository) Create(ctx context.Context, params queries.CreateStudentParams) (queries.Student, error) {
	return r.store.CreateStudent(ctx, params)
}

// GetByEmail fetches a student by email, case-insensitively.
func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (queries.Student, error) {
	return r.store.GetStudentByEmail(ctx, email)
}

// GetByID fetches a student by primary key.
func (r *StudentRepository) GetByID(ctx context.Context, id uuid.UUID) (queries.Student, error) {
	return r.store.GetStudentByID(ctx, pgUUID(id))
}

// GetByStudentID fetches a student by institutional student id.
func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (queries.Student, error) {
	return r.store.GetStudentByStudentID(ctx, pgtype.Text{String: studentID, Valid: studentID != ""})
}

// AddAttemptedLevel records level in the student's attempted set. Repeats are ignored.
func (r *StudentRepository) AddAttemptedLevel(ctx context.Context, id uuid.UUID, level int) error {
	return r.store.AddAttemptedLevel(ctx, queries.AddAttemptedLevelParams{
		ID:    pgUUID(id),
		Level: int32(level),
	})
}
