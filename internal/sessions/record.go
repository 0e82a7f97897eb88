package sessions

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
	"github.com/gokatarajesh/finlit-quiz/internal/game"
)

// Record is a saved play-through as shown to admins and fed to the report pipeline.
type Record struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	StudentID        string              `json:"student_id,omitempty"`
	Email            string              `json:"email,omitempty"`
	Mobile           string              `json:"mobile,omitempty"`
	Level            int                 `json:"level"`
	Score            int                 `json:"score"`
	TotalQuestions   int                 `json:"total_questions"`
	Answers          []game.AnswerRecord `json:"answers"`
	StartTime        time.Time           `json:"start_time"`
	EndTime          time.Time           `json:"end_time"`
	TimeTakenSeconds int                 `json:"time_taken_seconds"`
	FeedbackText     string              `json:"feedback_text"`
	CreatedAt        time.Time           `json:"created_at"`
}

// DisplayName prefers the student id, then mobile, then email.
func (r Record) DisplayName() string {
	switch {
	case r.StudentID != "":
		return r.StudentID
	case r.Mobile != "":
		return r.Mobile
	default:
		return r.Email
	}
}

// FromSummary converts an engine summary into an unsaved record.
func FromSummary(s game.Summary) Record {
	return Record{
		UserID:           s.Student.UserID,
		StudentID:        s.Student.StudentID,
		Email:            s.Student.Email,
		Mobile:           s.Student.Mobile,
		Level:            int(s.Level),
		Score:            s.Score,
		TotalQuestions:   s.TotalQuestions,
		Answers:          s.Answers,
		StartTime:        s.StartTime,
		EndTime:          s.EndTime,
		TimeTakenSeconds: s.TimeTakenSeconds,
		FeedbackText:     s.FeedbackText,
	}
}

// FromRow converts a database row.
func FromRow(row queries.Session) (Record, error) {
	answers := []game.AnswerRecord{}
	if len(row.Answers) > 0 {
		if err := json.Unmarshal(row.Answers, &answers); err != nil {
			return Record{}, fmt.Errorf("decode answers: %w", err)
		}
	}
	return Record{
		ID:               uuid.UUID(row.ID.Bytes),
		UserID:           uuid.UUID(row.UserID.Bytes),
		StudentID:        row.StudentID.String,
		Email:            row.Email.String,
		Mobile:           row.Mobile.String,
		Level:            int(row.Level),
		Score:            int(row.Score),
		TotalQuestions:   int(row.TotalQuestions),
		Answers:          answers,
		StartTime:        row.StartTime.Time,
		EndTime:          row.EndTime.Time,
		TimeTakenSeconds: int(row.TimeTakenSeconds),
		FeedbackText:     row.FeedbackText.String,
		CreatedAt:        row.CreatedAt.Time,
	}, nil
}

func createParams(r Record) (queries.CreateSessionParams, error) {
	answers := r.Answers
	if answers == nil {
		answers = []game.AnswerRecord{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return queries.CreateSessionParams{}, fmt.Errorf("encode answers: %w", err)
	}
	return queries.CreateSessionParams{
		UserID:           pgtype.UUID{Bytes: r.UserID, Valid: r.UserID != uuid.Nil},
		StudentID:        text(r.StudentID),
		Email:            text(r.Email),
		Mobile:           text(r.Mobile),
		Level:            int32(r.Level),
		Score:            int32(r.Score),
		TotalQuestions:   int32(r.TotalQuestions),
		Answers:          raw,
		StartTime:        pgtype.Timestamptz{Time: r.StartTime, Valid: !r.StartTime.IsZero()},
		EndTime:          pgtype.Timestamptz{Time: r.EndTime, Valid: !r.EndTime.IsZero()},
		TimeTakenSeconds: int32(r.TimeTakenSeconds),
		FeedbackText:     text(r.FeedbackText),
	}, nil
}

func text(v string) pgtype.Text {
	return pgtype.Text{String: v, Valid: v != ""}
}
