package game

import (
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/game/scoring"
)

// LevelView names the active level.
type LevelView struct {
	Level catalog.Level `json:"level"`
	Name  string        `json:"name"`
	Dual  bool          `json:"dual"`
}

// ItemView is the current question without its answer.
type ItemView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FeedbackView is shown after a submission until the student advances.
type FeedbackView struct {
	Correct           bool               `json:"correct"`
	Message           string             `json:"message"`
	Explanation       string             `json:"explanation"`
	CorrectCategories []catalog.Category `json:"correct_categories"`
}

// View is what a client renders for the current state.
type View struct {
	State        State              `json:"state"`
	Student      string             `json:"student,omitempty"`
	Attempted    []catalog.Level    `json:"attempted_levels"`
	Level        *LevelView         `json:"level,omitempty"`
	Question     int                `json:"question,omitempty"`
	Total        int                `json:"total,omitempty"`
	Item         *ItemView          `json:"item,omitempty"`
	Selected     []catalog.Category `json:"selected,omitempty"`
	CanSubmit    bool               `json:"can_submit"`
	Feedback     *FeedbackView      `json:"feedback,omitempty"`
	Score        int                `json:"score"`
	Result       *scoring.Result    `json:"result,omitempty"`
	FeedbackText string             `json:"feedback_text,omitempty"`
	Save         *SaveResult        `json:"save,omitempty"`
}

// BuildView projects the engine into a client view.
func BuildView(e *Engine, bank *catalog.Bank) View {
	v := View{
		State:     e.State(),
		Student:   e.Student.DisplayName(),
		Attempted: e.Attempted,
		Save:      e.LastSave,
	}
	if v.Attempted == nil {
		v.Attempted = []catalog.Level{}
	}

	s := e.Session
	if s == nil {
		return v
	}

	lv := &LevelView{Level: s.Level, Dual: s.Dual}
	if cfg, ok := bank.Level(s.Level); ok {
		lv.Name = cfg.Name
	}
	v.Level = lv
	v.Total = s.Total()
	v.Score = s.Score

	switch v.State {
	case StatePlaying:
		v.Question = s.Index + 1
		if item, ok := s.Current(); ok {
			v.Item = &ItemView{ID: item.ID, Name: item.Name}
			if s.FeedbackVisible {
				correct := item.CorrectCategories()
				v.Feedback = &FeedbackView{
					Correct:           s.LastCorrect,
					Message:           scoring.FeedbackMessage(s.LastCorrect, bank.Labels(correct)),
					Explanation:       item.Explanation,
					CorrectCategories: correct,
				}
			}
		}
		v.Selected = s.Selected
		v.CanSubmit = s.CanSubmit()
	case StateGameOver, StateFeedback, StateReportPreview:
		result := s.Result()
		v.Result = &result
		if s.FeedbackText != nil {
			v.FeedbackText = *s.FeedbackText
		}
	}
	return v
}
