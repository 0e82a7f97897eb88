package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
)

// SheetName is the single worksheet of a session report.
const SheetName = "Session Report"

// XLSXContentType is the MIME type of the attachment.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook is a rendered report held in memory.
type Workbook struct {
	Name string
	Data []byte
}

// ReportName is the attachment name for a report created at t.
func ReportName(t time.Time) string {
	return fmt.Sprintf("session_report_%d.xlsx", t.UnixMilli())
}

// BuildWorkbook lays out metadata, the analysis and the answer table on one sheet.
func BuildWorkbook(rec sessions.Record, analysis string, createdAt time.Time) (Workbook, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return Workbook{}, fmt.Errorf("name sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Student ID", rec.DisplayName()},
		{"Level", rec.Level},
		{"Score", rec.Score},
		{"Total Questions", rec.TotalQuestions},
		{"Start Time", formatTime(rec.StartTime)},
		{"End Time", formatTime(rec.EndTime)},
		{"Time Taken (s)", rec.TimeTakenSeconds},
		{"Student Feedback", rec.FeedbackText},
		nil,
		{"AI Analysis"},
		{analysis},
		nil,
		{"Answers"},
		{"Q#", "Question", "Selected", "Correct", "Is Correct"},
	}
	for i, ans := range rec.Answers {
		isCorrect := "No"
		if ans.IsCorrect {
			isCorrect = "Yes"
		}
		rows = append(rows, []interface{}{
			i + 1,
			ans.QuestionText,
			joinCategories(ans.SelectedCategories),
			joinCategories(ans.CorrectCategories),
			isCorrect,
		})
	}

	for i, row := range rows {
		if row == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return Workbook{}, err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return Workbook{}, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 18); err != nil {
		return Workbook{}, err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 48); err != nil {
		return Workbook{}, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Workbook{}, fmt.Errorf("render workbook: %w", err)
	}
	return Workbook{Name: ReportName(createdAt), Data: buf.Bytes()}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
