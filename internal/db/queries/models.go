package queries

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Student struct {
	ID              pgtype.UUID        `json:"id"`
	Email           string             `json:"email"`
	PasswordHash    string             `json:"password_hash"`
	Mobile          pgtype.Text        `json:"mobile"`
	StudentID       pgtype.Text        `json:"student_id"`
	AttemptedLevels []int32            `json:"attempted_levels"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

type Admin struct {
	ID           pgtype.UUID        `json:"id"`
	Username     string             `json:"username"`
	PasswordHash string             `json:"password_hash"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Session struct {
	ID               pgtype.UUID        `json:"id"`
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
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
}
