package scoring

import (
	"strings"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
)

// Tier is the qualitative band a final percentage falls into.
type Tier string

const (
	TierPerfect   Tier = "perfect"
	TierExcellent Tier = "excellent"
	TierGreat     Tier = "great"
	TierEncourage Tier = "encourage"
)

var tierMessages = map[Tier]string{
	TierPerfect:   "Perfect Score! You're a financial statement maestro!",
	TierExcellent: "Excellent! You're a financial whiz!",
	TierGreat:     "Great job! You have a solid understanding.",
	TierEncourage: "Good effort! Keep practicing to improve your financial literacy!",
}

// Message returns the player-facing text for the tier.
func (t Tier) Message() string {
	return tierMessages[t]
}

// Result is the derived end-of-game display.
type Result struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Tier       Tier   `json:"tier"`
	Message    string `json:"message"`
}

// Percentage rounds 100*score/total half up using integer math. Zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	return (200*score + total) / (2 * total)
}

// TierFor maps a percentage to its tier. Thresholds: 100, >=80, >=60.
func TierFor(percentage int) Tier {
	switch {
	case percentage >= 100:
		return TierPerfect
	case percentage >= 80:
		return TierExcellent
	case percentage >= 60:
		return TierGreat
	default:
		return TierEncourage
	}
}

// Evaluate computes the final display values for a play-through.
func Evaluate(score, total int) Result {
	pct := Percentage(score, total)
	tier := TierFor(pct)
	return Result{
		Score:      score,
		Total:      total,
		Percentage: pct,
		Tier:       tier,
		Message:    tier.Message(),
	}
}

// IsCorrect compares a selection against the expected answer as sets.
func IsCorrect(selected, expected []catalog.Category) bool {
	if len(selected) != len(expected) || len(expected) == 0 {
		return false
	}
	want := make(map[catalog.Category]bool, len(expected))
	for _, c := range expected {
		want[c] = true
	}
	got := make(map[catalog.Category]bool, len(selected))
	for _, c := range selected {
		if !want[c] {
			return false
		}
		got[c] = true
	}
	return len(got) == len(want)
}

// FeedbackMessage renders the per-answer verdict from the correct labels.
func FeedbackMessage(correct bool, labels []string) string {
	if correct {
		return "Correct!"
	}
	switch len(labels) {
	case 0:
		return "Not quite!"
	case 1:
		return "Not quite! The correct answer is " + labels[0] + "."
	default:
		head := strings.Join(labels[:len(labels)-1], ", ")
		return "Not quite! The correct answers are " + head + " and " + labels[len(labels)-1] + "."
	}
}
