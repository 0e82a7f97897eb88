package game

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
)

var (
	// ErrLevelAttempted is returned when a student selects a level they already played.
	ErrLevelAttempted = errors.New("level already attempted")
	// ErrInvalidLevel is returned for a level outside the bank.
	ErrInvalidLevel = errors.New("invalid level")
	// ErrEmptyLevel is returned when a level has no items to draw.
	ErrEmptyLevel = errors.New("level has no items")
	// ErrSaveFailed is returned under the strict save policy when persistence fails.
	ErrSaveFailed = errors.New("session save failed")
)

// SavePolicy decides whether a failed save blocks the move to the report preview.
type SavePolicy string

const (
	// SaveBestEffort advances to the report preview even when the save failed.
	SaveBestEffort SavePolicy = "best_effort"
	// SaveStrict keeps the student on the feedback screen until a save succeeds.
	SaveStrict SavePolicy = "strict"
)

// ParseSavePolicy validates a configured policy name.
func ParseSavePolicy(raw string) (SavePolicy, error) {
	switch p := SavePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case SaveBestEffort, SaveStrict:
		return p, nil
	case "":
		return SaveBestEffort, nil
	default:
		return "", fmt.Errorf("unknown save policy %q", raw)
	}
}

// SaveResult is the outcome of the session save triggered by feedback submission.
type SaveResult struct {
	Saved   bool   `json:"saved"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

// Identity identifies the student driving an engine.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	StudentID string    `json:"student_id,omitempty"`
	Mobile    string    `json:"mobile,omitempty"`
}

// DisplayName prefers the student id, then mobile, then email.
func (i Identity) DisplayName() string {
	switch {
	case i.StudentID != "":
		return i.StudentID
	case i.Mobile != "":
		return i.Mobile
	default:
		return i.Email
	}
}

// Summary is the record handed to persistence when a play-through ends.
type Summary struct {
	Student          Identity       `json:"student"`
	Level            catalog.Level  `json:"level"`
	Score            int            `json:"score"`
	TotalQuestions   int            `json:"total_questions"`
	Answers          []AnswerRecord `json:"answers"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	TimeTakenSeconds int            `json:"time_taken_seconds"`
	FeedbackText     string         `json:"feedback_text"`
}

// Engine owns the state machine and the active play-through for one student.
// It holds no I/O; collaborators are passed into the methods that need them.
type Engine struct {
	Machine   Machine         `json:"machine"`
	Student   Identity        `json:"student"`
	Attempted []catalog.Level `json:"attempted_levels"`
	Session   *Session        `json:"session,omitempty"`
	LastSave  *SaveResult     `json:"last_save,omitempty"`
}

// NewEngine returns an engine at LOGIN.
func NewEngine() *Engine {
	return &Engine{Machine: NewMachine(), Attempted: []catalog.Level{}}
}

// State returns the current state.
func (e *Engine) State() State {
	return e.Machine.Current()
}

// require checks the engine is in want, distinguishing unknown states.
func (e *Engine) require(want State) error {
	cur := e.State()
	if !cur.Known() {
		return fmt.Errorf("%w: %s", ErrUnknownState, cur)
	}
	if cur != want {
		return fmt.Errorf("%w: expected %s, in %s", ErrInvalidTransition, want, cur)
	}
	return nil
}

// Login moves a fresh engine into level selection for id.
func (e *Engine) Login(id Identity, attempted []catalog.Level) error {
	if err := e.Machine.Fire(EventLogin); err != nil {
		return err
	}
	e.Student = id
	e.Attempted = normalizeLevels(attempted)
	e.Session = nil
	e.LastSave = nil
	return nil
}

// HasAttempted reports whether level is in the attempted list.
func (e *Engine) HasAttempted(level catalog.Level) bool {
	return slices.Contains(e.Attempted, level)
}

// StartLevel draws items and enters PLAYING.
func (e *Engine) StartLevel(level catalog.Level, bank *catalog.Bank, n int, rng Rand, now time.Time, allowReplay bool) error {
	if err := e.require(StateLevelSelection); err != nil {
		return err
	}
	cfg, ok := bank.Level(level)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	if !allowReplay && e.HasAttempted(level) {
		return fmt.Errorf("%w: %d", ErrLevelAttempted, level)
	}
	pool := bank.ItemsForLevel(level)
	if len(pool) == 0 {
		return fmt.Errorf("%w: %d", ErrEmptyLevel, level)
	}
	if err := e.Machine.Fire(EventSelectLevel); err != nil {
		return err
	}
	e.Session = NewSession(level, cfg.Dual, Draw(pool, n, rng), now)
	e.LastSave = nil
	return nil
}

// SelectCategory applies a category press. Presses that break the selection
// rules are ignored.
func (e *Engine) SelectCategory(c catalog.Category) error {
	if err := e.require(StatePlaying); err != nil {
		return err
	}
	e.Session.Select(c)
	return nil
}

// Submit grades the current selection. It reports whether the submission was accepted.
func (e *Engine) Submit() (bool, error) {
	if err := e.require(StatePlaying); err != nil {
		return false, err
	}
	return e.Session.Submit(), nil
}

// Next advances past the answered item, firing finish after the last one.
func (e *Engine) Next(now time.Time) error {
	if err := e.require(StatePlaying); err != nil {
		return err
	}
	finished, _ := e.Session.Advance(now)
	if finished {
		return e.Machine.Fire(EventFinish)
	}
	return nil
}

// ProceedToFeedback opens the free-text feedback screen.
func (e *Engine) ProceedToFeedback() error {
	return e.Machine.Fire(EventProceedToFeedback)
}

// SkipFeedback discards the session and returns to level selection.
func (e *Engine) SkipFeedback() error {
	if err := e.Machine.Fire(EventSkipFeedback); err != nil {
		return err
	}
	e.Session = nil
	return nil
}

// SubmitFeedback records text, builds the summary and hands it to save.
// Under SaveStrict a failed save leaves the engine on the feedback screen
// and returns ErrSaveFailed.
func (e *Engine) SubmitFeedback(text string, policy SavePolicy, save func(Summary) error) (SaveResult, error) {
	if err := e.require(StateFeedback); err != nil {
		return SaveResult{}, err
	}
	e.Session.FeedbackText = &text
	summary := e.Summary()

	result := SaveResult{Saved: true}
	if err := save(summary); err != nil {
		result = SaveResult{Saved: false, Message: "Your session could not be saved.", Err: err}
		if policy == SaveStrict {
			e.LastSave = &result
			return result, fmt.Errorf("%w: %v", ErrSaveFailed, err)
		}
	}

	if err := e.Machine.Fire(EventSubmitFeedback); err != nil {
		return result, err
	}
	if result.Saved && !e.HasAttempted(summary.Level) {
		e.Attempted = normalizeLevels(append(e.Attempted, summary.Level))
	}
	e.LastSave = &result
	return result, nil
}

// BackToLevels leaves the report preview with the level cleared.
func (e *Engine) BackToLevels() error {
	if err := e.Machine.Fire(EventBackToLevels); err != nil {
		return err
	}
	e.Session = nil
	e.LastSave = nil
	return nil
}

// Logout returns to LOGIN from any student screen.
func (e *Engine) Logout() error {
	if err := e.Machine.Fire(EventLogout); err != nil {
		return err
	}
	e.clear()
	return nil
}

// Reset is the recovery path out of any state, including unknown ones.
func (e *Engine) Reset() {
	_ = e.Machine.Fire(EventReset)
	e.clear()
}

func (e *Engine) clear() {
	e.Student = Identity{}
	e.Attempted = []catalog.Level{}
	e.Session = nil
	e.LastSave = nil
}

// Summary builds the persisted record from the finished session.
func (e *Engine) Summary() Summary {
	s := e.Session
	if s == nil {
		return Summary{Student: e.Student}
	}
	end := s.StartedAt
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	feedback := ""
	if s.FeedbackText != nil {
		feedback = *s.FeedbackText
	}
	answers := make([]AnswerRecord, len(s.Answers))
	copy(answers, s.Answers)
	return Summary{
		Student:          e.Student,
		Level:            s.Level,
		Score:            s.Score,
		TotalQuestions:   s.Total(),
		Answers:          answers,
		StartTime:        s.StartedAt,
		EndTime:          end,
		TimeTakenSeconds: s.ElapsedSeconds(),
		FeedbackText:     feedback,
	}
}

func normalizeLevels(levels []catalog.Level) []catalog.Level {
	out := make([]catalog.Level, 0, len(levels))
	for _, l := range levels {
		if !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}
