package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const studentColumns = `id, email, password_hash, mobile, student_id, attempted_levels, created_at`

func scanStudent(row interface{ Scan(...interface{}) error }) (Student, error) {
	var s Student
	err := row.Scan(
		&s.ID,
		&s.Email,
		&s.PasswordHash,
		&s.Mobile,
		&s.StudentID,
		&s.AttemptedLevels,
		&s.CreatedAt,
	)
	return s, err
}

const createStudent = `
INSERT INTO students (email, password_hash, mobile, student_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + studentColumns

type CreateStudentParams struct {
	Email        string      `json:"email"`
	PasswordHash string      `json:"password_hash"`
	Mobile       pgtype.Text `json:"mobile"`
	StudentID    pgtype.Text `json:"student_id"`
}

func (q *Queries) CreateStudent(ctx context.Context, arg CreateStudentParams) (Student, error) {
	row := q.db.QueryRow(ctx, createStudent, arg.Email, arg.PasswordHash, arg.Mobile, arg.StudentID)
	return scanStudent(row)
}

const getStudentByEmail = `SELECT ` + studentColumns + ` FROM students WHERE lower(email) = lower($1)`

func (q *Queries) GetStudentByEmail(ctx context.Context, email string) (Student, error) {
	return scanStudent(q.db.QueryRow(ctx, getStudentByEmail, email))
}

const getStudentByID = `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

func (q *Queries) GetStudentByID(ctx context.Context, id pgtype.UUID) (Student, error) {
	return scanStudent(q.db.QueryRow(ctx, getStudentByID, id))
}

const getStudentByStudentID = `SELECT ` + studentColumns + ` FROM students WHERE student_id = $1 ORDER BY created_at LIMIT 1`

func (q *Queries) GetStudentByStudentID(ctx context.Context, studentID pgtype.Text) (Student, error) {
	return scanStudent(q.db.QueryRow(ctx, getStudentByStudentID, studentID))
}

const addAttemptedLevel = `
UPDATE students
SET attempted_levels = array_append(attempted_levels, $2)
WHERE id = $1 AND NOT ($2 = ANY (attempted_levels))
`

type AddAttemptedLevelParams struct {
	ID    pgtype.UUID `json:"id"`
	Level int32       `json:"level"`
}

func (q *Queries) AddAttemptedLevel(ctx context.Context, arg AddAttemptedLevelParams) error {
	_, err := q.db.Exec(ctx, addAttemptedLevel, arg.ID, arg.Level)
	return err
}
