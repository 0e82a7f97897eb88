//go:build integration
// +build integration

package integration

import (
	"net/http"
	"testing"
)

func TestPlayLevelToReport(t *testing.T) {
	student := newStudent(t)

	view, status := gameCall(t, student.AccessToken, "", nil)
	if status != http.StatusOK {
		t.Fatalf("get game: status %d", status)
	}
	if view.State != "LEVEL_SELECTION" {
		t.Fatalf("expected LEVEL_SELECTION after login, got %s", view.State)
	}

	view = playLevel(t, student.AccessToken, 1)
	if view.State != "GAME_OVER" {
		t.Fatalf("expected GAME_OVER, got %s", view.State)
	}
	if view.Score < 0 || view.Score > view.Total {
		t.Fatalf("score %d out of range for %d items", view.Score, view.Total)
	}

	if view, status = gameCall(t, student.AccessToken, "/feedback/start", nil); status != http.StatusOK {
		t.Fatalf("proceed to feedback: status %d", status)
	}
	view, status = gameCall(t, student.AccessToken, "/feedback", map[string]string{"text": "Assets vs expenses confused me"})
	if status != http.StatusOK {
		t.Fatalf("submit feedback: status %d", status)
	}
	if view.State != "REPORT_PREVIEW" {
		t.Fatalf("expected REPORT_PREVIEW, got %s", view.State)
	}
	if view.Save == nil || !view.Save.Saved {
		t.Fatal("session was not saved")
	}

	// The level is now attempted and cannot be replayed.
	if view, status = gameCall(t, student.AccessToken, "/levels", nil); status != http.StatusOK {
		t.Fatalf("back to levels: status %d", status)
	}
	if _, status = gameCall(t, student.AccessToken, "/level", map[string]int{"level": 1}); status != http.StatusConflict {
		t.Fatalf("expected 409 replaying level 1, got %d", status)
	}
}

func TestDualLevelRequiresTwoCategories(t *testing.T) {
	student := newStudent(t)

	view, status := gameCall(t, student.AccessToken, "/level", map[string]int{"level": 4})
	if status != http.StatusOK {
		t.Fatalf("select level 4: status %d", status)
	}
	if view, status = gameCall(t, student.AccessToken, "/select", map[string]string{"category": "ASSET"}); status != http.StatusOK {
		t.Fatalf("select: status %d", status)
	}
	if view.CanSubmit {
		t.Fatal("level 4 submission allowed with one category")
	}

	// Submitting early is a no-op that returns the unchanged view.
	view, status = gameCall(t, student.AccessToken, "/submit", nil)
	if status != http.StatusOK {
		t.Fatalf("early submit: status %d", status)
	}
	if view.Feedback != nil {
		t.Fatal("early submit produced feedback")
	}
}
