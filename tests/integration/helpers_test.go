//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

type studentInfo struct {
	ID           string
	Email        string
	AccessToken  string
	RefreshToken string
}

type gameView struct {
	State    string `json:"state"`
	Question int    `json:"question"`
	Total    int    `json:"total"`
	Item     *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"item"`
	Selected  []string `json:"selected"`
	CanSubmit bool     `json:"can_submit"`
	Feedback  *struct {
		Correct bool `json:"correct"`
	} `json:"feedback"`
	Score int `json:"score"`
	Save  *struct {
		Saved bool `json:"saved"`
	} `json:"save"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func baseURL() string {
	return envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
}

func studentDomain() string {
	return envOrDefault("INTEGRATION_EMAIL_DOMAIN", "@micamail.in")
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d%s", prefix, time.Now().UnixNano(), studentDomain())
}

func makeRequest(t *testing.T, method, url, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		t.Fatalf("unexpected status: got %d want %d, body: %v", resp.StatusCode, want, errResp)
	}
}

func registerStudent(t *testing.T, email, password string) {
	t.Helper()
	resp := makeRequest(t, http.MethodPost, baseURL()+"/v1/auth/register", "", map[string]string{
		"email":      email,
		"password":   password,
		"student_id": fmt.Sprintf("S-%d", time.Now().UnixNano()),
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusCreated)
}

func loginStudent(t *testing.T, email, password string) studentInfo {
	t.Helper()
	resp := makeRequest(t, http.MethodPost, baseURL()+"/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var out struct {
		Student struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"student"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login response failed: %v", err)
	}
	if out.AccessToken == "" {
		t.Fatal("empty access token in login response")
	}
	return studentInfo{ID: out.Student.ID, Email: out.Student.Email, AccessToken: out.AccessToken, RefreshToken: out.RefreshToken}
}

func newStudent(t *testing.T) studentInfo {
	t.Helper()
	email := uniqueEmail("student")
	registerStudent(t, email, "testpassword123")
	return loginStudent(t, email, "testpassword123")
}

func adminToken(t *testing.T) string {
	t.Helper()
	username := os.Getenv("INTEGRATION_ADMIN_USERNAME")
	password := os.Getenv("INTEGRATION_ADMIN_PASSWORD")
	if username == "" || password == "" {
		t.Skip("INTEGRATION_ADMIN_USERNAME/INTEGRATION_ADMIN_PASSWORD not set")
	}

	resp := makeRequest(t, http.MethodPost, baseURL()+"/v1/auth/admin-login", "", map[string]string{
		"username": username,
		"password": password,
	})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode admin login failed: %v", err)
	}
	return out.AccessToken
}

func gameCall(t *testing.T, token, path string, payload interface{}) (gameView, int) {
	t.Helper()
	method := http.MethodPost
	if path == "" {
		method = http.MethodGet
	}
	resp := makeRequest(t, method, baseURL()+"/v1/game"+path, token, payload)
	defer resp.Body.Close()

	var view gameView
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
			t.Fatalf("decode game view: %v", err)
		}
	}
	return view, resp.StatusCode
}

// playLevel answers every item with a fixed category and returns the final view.
func playLevel(t *testing.T, token string, level int) gameView {
	t.Helper()

	view, status := gameCall(t, token, "/level", map[string]int{"level": level})
	if status != http.StatusOK {
		t.Fatalf("select level %d: status %d", level, status)
	}
	for view.State == "PLAYING" {
		if view.Feedback == nil {
			if view, status = gameCall(t, token, "/select", map[string]string{"category": "ASSET"}); status != http.StatusOK {
				t.Fatalf("select category: status %d", status)
			}
			if level == 4 {
				if view, status = gameCall(t, token, "/select", map[string]string{"category": "LIABILITY"}); status != http.StatusOK {
					t.Fatalf("select second category: status %d", status)
				}
			}
			if view, status = gameCall(t, token, "/submit", nil); status != http.StatusOK {
				t.Fatalf("submit: status %d", status)
			}
			continue
		}
		if view, status = gameCall(t, token, "/next", nil); status != http.StatusOK {
			t.Fatalf("next: status %d", status)
		}
	}
	return view
}
