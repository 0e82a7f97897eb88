package game

import (
	"math"
	"time"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/game/scoring"
)

// AnswerRecord is one accepted submission.
type AnswerRecord struct {
	QuestionID         string             `json:"question_id"`
	QuestionText       string             `json:"question_text"`
	SelectedCategories []catalog.Category `json:"selected_categories"`
	CorrectCategories  []catalog.Category `json:"correct_categories"`
	IsCorrect          bool               `json:"is_correct"`
}

// Session is a single play-through of one level.
type Session struct {
	Level           catalog.Level           `json:"level"`
	Dual            bool                    `json:"dual"`
	Items           []catalog.FinancialItem `json:"items"`
	Index           int                     `json:"index"`
	Score           int                     `json:"score"`
	Selected        []catalog.Category      `json:"selected"`
	FeedbackVisible bool                    `json:"feedback_visible"`
	LastCorrect     bool                    `json:"last_correct"`
	FeedbackText    *string                 `json:"feedback_text,omitempty"`
	StartedAt       time.Time               `json:"started_at"`
	EndedAt         *time.Time              `json:"ended_at,omitempty"`
	Answers         []AnswerRecord          `json:"answers"`
}

// NewSession starts a fresh play-through over items.
func NewSession(level catalog.Level, dual bool, items []catalog.FinancialItem, now time.Time) *Session {
	return &Session{
		Level:     level,
		Dual:      dual,
		Items:     items,
		Selected:  []catalog.Category{},
		StartedAt: now,
		Answers:   []AnswerRecord{},
	}
}

// Total is the number of items drawn.
func (s *Session) Total() int {
	return len(s.Items)
}

// Finished reports whether the end time has been stamped.
func (s *Session) Finished() bool {
	return s.EndedAt != nil
}

// Current returns the active item.
func (s *Session) Current() (catalog.FinancialItem, bool) {
	if s.Finished() || s.Index < 0 || s.Index >= len(s.Items) {
		return catalog.FinancialItem{}, false
	}
	return s.Items[s.Index], true
}

func (s *Session) required() int {
	if s.Dual {
		return 2
	}
	return 1
}

// Select applies a category press. It reports whether the selection changed.
func (s *Session) Select(c catalog.Category) bool {
	if s.FeedbackVisible || s.Finished() {
		return false
	}
	if !s.Dual {
		if len(s.Selected) == 1 && s.Selected[0] == c {
			return false
		}
		s.Selected = []catalog.Category{c}
		return true
	}

	for i, sel := range s.Selected {
		if sel == c {
			s.Selected = append(s.Selected[:i:i], s.Selected[i+1:]...)
			return true
		}
	}
	if len(s.Selected) >= 2 {
		return false
	}
	s.Selected = append(s.Selected, c)
	return true
}

// CanSubmit reports whether the selection satisfies the level's count rule.
func (s *Session) CanSubmit() bool {
	if s.FeedbackVisible {
		return false
	}
	if _, ok := s.Current(); !ok {
		return false
	}
	if len(s.Selected) != s.required() {
		return false
	}
	return !s.Dual || s.Selected[0] != s.Selected[1]
}

// Submit grades the current selection. It reports whether the submission was accepted.
func (s *Session) Submit() bool {
	if !s.CanSubmit() {
		return false
	}
	item, _ := s.Current()
	expected := item.CorrectCategories()
	correct := scoring.IsCorrect(s.Selected, expected)

	s.LastCorrect = correct
	if correct {
		s.Score++
	}
	s.FeedbackVisible = true

	selected := make([]catalog.Category, len(s.Selected))
	copy(selected, s.Selected)
	s.Answers = append(s.Answers, AnswerRecord{
		QuestionID:         item.ID,
		QuestionText:       item.Name,
		SelectedCategories: selected,
		CorrectCategories:  expected,
		IsCorrect:          correct,
	})
	return true
}

// Advance moves past the answered item. finished is true only on the call
// that stamps the end time.
func (s *Session) Advance(now time.Time) (finished bool, ok bool) {
	if !s.FeedbackVisible || s.Finished() {
		return false, false
	}
	s.FeedbackVisible = false
	s.Selected = []catalog.Category{}

	if s.Index < len(s.Items)-1 {
		s.Index++
		return false, true
	}

	end := now
	if end.Before(s.StartedAt) {
		end = s.StartedAt
	}
	s.EndedAt = &end
	return true, true
}

// ElapsedSeconds is the play time rounded to whole seconds.
func (s *Session) ElapsedSeconds() int {
	if s.EndedAt == nil {
		return 0
	}
	return int(math.Round(s.EndedAt.Sub(s.StartedAt).Seconds()))
}

// Result returns the derived score display.
func (s *Session) Result() scoring.Result {
	return scoring.Evaluate(s.Score, s.Total())
}
