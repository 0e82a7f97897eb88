package report

import (
	"fmt"
	"strings"

	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
)

const (
	promptHeader = "Analyze the following student session for conceptual difficulties. " +
		"List the main concepts the student struggled with, based on their incorrect answers and feedback. " +
		"If the student got everything correct, suggest advanced topics or ways to challenge them further.\n\n"

	noIncorrectAnswers = "None (no incorrect answers available). Suggest advanced topics or further challenges instead."
	noFeedback         = "None"
)

// BuildPrompt renders the analysis prompt. Only wrong answers are listed,
// numbered by their position in the full answer log.
func BuildPrompt(rec sessions.Record) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("Incorrect Answers:\n")

	wrong := 0
	for i, ans := range rec.Answers {
		if ans.IsCorrect {
			continue
		}
		wrong++
		fmt.Fprintf(&b, "- Q%d: %s (student answer: %s, correct: %s)\n",
			i+1, ans.QuestionText, joinCategories(ans.SelectedCategories), joinCategories(ans.CorrectCategories))
	}
	if wrong == 0 {
		b.WriteString(noIncorrectAnswers)
		b.WriteString("\n")
	}

	b.WriteString("\nStudent Feedback:\n")
	if rec.FeedbackText == "" {
		b.WriteString(noFeedback)
	} else {
		b.WriteString(rec.FeedbackText)
	}
	return b.String()
}

func joinCategories(cs []catalog.Category) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
