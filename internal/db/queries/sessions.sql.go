package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, user_id, student_id, email, mobile, level, score, total_questions, answers,
	start_time, end_time, time_taken_seconds, feedback_text, created_at`

func scanSession(row interface{ Scan(...interface{}) error }) (Session, error) {
	var s Session
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.StudentID,
		&s.Email,
		&s.Mobile,
		&s.Level,
		&s.Score,
		&s.TotalQuestions,
		&s.Answers,
		&s.StartTime,
		&s.EndTime,
		&s.TimeTakenSeconds,
		&s.FeedbackText,
		&s.CreatedAt,
	)
	return s, err
}

const createSession = `
INSERT INTO sessions (
	user_id, student_id, email, mobile, level, score, total_questions, answers,
	start_time, end_time, time_taken_seconds, feedback_text
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	UserID           pgtype.UUID        `json:"user_id"`
	StudentID        pgtype.Text        `json:"student_id"`
	Email            pgtype.Text        `json:"email"`
	Mobile           pgtype.Text        `json:"mobile"`
	Level            int32              `json:"level"`
	Score            int32              `json:"score"`
	TotalQuestions   int32              `json:"total_questions"`
	Answers          []byte             `json:"answers"`
	StartTime        pgtype.Timestamptz `json:"start_time"`
	EndTime          pgtype.Timestamptz `json:"end_time"`
	TimeTakenSeconds int32              `json:"time_taken_seconds"`
	FeedbackText     pgtype.Text        `json:"feedback_text"`
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession,
		arg.UserID,
		arg.StudentID,
		arg.Email,
		arg.Mobile,
		arg.Level,
		arg.Score,
		arg.TotalQuestions,
		arg.Answers,
		arg.StartTime,
		arg.EndTime,
		arg.TimeTakenSeconds,
		arg.FeedbackText,
	)
	return scanSession(row)
}

const getSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

func (q *Queries) GetSession(ctx context.Context, id pgtype.UUID) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getSession, id))
}

const listSessions = `SELECT ` + sessionColumns + ` FROM sessions ORDER BY created_at DESC`

func (q *Queries) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := q.db.Query(ctx, listSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
