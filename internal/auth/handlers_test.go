package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/finlit-quiz/internal/auth/jwt"
	"github.com/gokatarajesh/finlit-quiz/internal/db/queries"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

type recordingObserver struct {
	students []Student
	err      error
}

func (o *recordingObserver) StudentLoggedIn(_ context.Context, student Student) error {
	o.students = append(o.students, student)
	return o.err
}

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httperrors.ErrorResponse {
	t.Helper()
	var resp httperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandlers_Register_ValidationErrors(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())

	rec := postJSON(t, h.Register, RegisterRequest{Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decodeError(t, rec).Field)

	rec = postJSON(t, h.Register, RegisterRequest{Email: "a@gmail.com", Password: "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, httperrors.ErrCodeEmailDomain, resp.Error)
	assert.Contains(t, resp.Message, "@micamail.in")
}

func TestHandlers_Register_Conflict(t *testing.T) {
	svc, students, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())
	students.On("GetByEmail", mock.Anything, "dup@micamail.in").Return(studentRow("dup@micamail.in"), nil)

	rec := postJSON(t, h.Register, RegisterRequest{Email: "dup@micamail.in", Password: "password123"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlers_Register_MethodNotAllowed(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlers_RequestOTP_UnknownStudent(t *testing.T) {
	svc, students, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())
	students.On("GetByEmail", mock.Anything, "ghost@micamail.in").Return(queries.Student{}, pgx.ErrNoRows)

	rec := postJSON(t, h.RequestOTP, OTPRequest{Email: "ghost@micamail.in"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httperrors.ErrCodeStudentNotFound, decodeError(t, rec).Error)
}

func TestHandlers_Login_NotifiesObserver(t *testing.T) {
	svc, students, _, otps := newTestService()
	observer := &recordingObserver{}
	h := NewHTTPHandlers(svc, nil, observer, zerolog.Nop())

	row := studentRow("ok@micamail.in", 2)
	students.On("GetByEmail", mock.Anything, "ok@micamail.in").Return(row, nil)
	otps.On("Consume", mock.Anything, "ok@micamail.in", "123456").Return(true, nil)

	rec := postJSON(t, h.Login, LoginRequest{Email: "ok@micamail.in", OTP: "123456"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		AccessToken     string `json:"access_token"`
		AttemptedLevels []int  `json:"attempted_levels"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotEmpty(t, body.AccessToken)
	assert.Equal(t, []int{2}, body.AttemptedLevels)
	require.Len(t, observer.students, 1)
	assert.Equal(t, "ok@micamail.in", observer.students[0].Email)
}

func TestHandlers_Login_ObserverFailureStillSucceeds(t *testing.T) {
	svc, students, _, otps := newTestService()
	h := NewHTTPHandlers(svc, nil, &recordingObserver{err: errors.New("redis down")}, zerolog.Nop())

	students.On("GetByEmail", mock.Anything, "ok@micamail.in").Return(studentRow("ok@micamail.in"), nil)
	otps.On("Consume", mock.Anything, "ok@micamail.in", "123456").Return(true, nil)

	rec := postJSON(t, h.Login, LoginRequest{Email: "ok@micamail.in", OTP: "123456"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_Login_InvalidCredentials(t *testing.T) {
	svc, students, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())
	students.On("GetByEmail", mock.Anything, "none@micamail.in").Return(queries.Student{}, pgx.ErrNoRows)

	rec := postJSON(t, h.Login, LoginRequest{Email: "none@micamail.in", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, httperrors.ErrCodeInvalidCredentials, resp.Error)
	assert.Equal(t, "Invalid credentials", resp.Message)
}

func TestHandlers_Login_OTPLocked(t *testing.T) {
	svc, students, _, otps := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())
	students.On("GetByEmail", mock.Anything, "ok@micamail.in").Return(studentRow("ok@micamail.in"), nil)
	otps.On("Consume", mock.Anything, "ok@micamail.in", "000000").Return(false, ErrOTPLocked)

	rec := postJSON(t, h.Login, LoginRequest{Email: "ok@micamail.in", OTP: "000000"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httperrors.ErrCodeOTPLocked, decodeError(t, rec).Error)
}

func TestHandlers_AttemptedLevels(t *testing.T) {
	svc, students, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())

	row := studentRow("me@micamail.in", 1, 4)
	id := uuid.UUID(row.ID.Bytes)
	students.On("GetByID", mock.Anything, id).Return(row, nil)
	students.On("GetByEmail", mock.Anything, "me@micamail.in").Return(row, nil)

	// student token reads own levels
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/attempted-levels", nil)
	req = req.WithContext(WithClaims(req.Context(), &jwt.Claims{UserID: id, Role: jwt.RoleStudent}))
	rec := httptest.NewRecorder()
	h.AttemptedLevels(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"attempted_levels":[1,4]}`, rec.Body.String())

	// admin must name a student
	req = httptest.NewRequest(http.MethodGet, "/v1/auth/attempted-levels", nil)
	req = req.WithContext(WithClaims(req.Context(), &jwt.Claims{Role: jwt.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.AttemptedLevels(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/attempted-levels?email=me@micamail.in", nil)
	req = req.WithContext(WithClaims(req.Context(), &jwt.Claims{Role: jwt.RoleAdmin}))
	rec = httptest.NewRecorder()
	h.AttemptedLevels(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlers_OAuthNotConfigured(t *testing.T) {
	svc, _, _, _ := newTestService()
	h := NewHTTPHandlers(svc, nil, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.OAuthStart(rec, httptest.NewRequest(http.MethodGet, "/v1/oauth/microsoft/start", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlers_OAuthStart(t *testing.T) {
	svc, _, _, _ := newTestService()
	oauthSvc := NewOAuthService(OAuthConfig{TenantID: "tenant-1", ClientID: "client", RedirectURL: "http://localhost/cb"}, zerolog.Nop())
	h := NewHTTPHandlers(svc, oauthSvc, nil, zerolog.Nop())

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth/{provider}/start", h.OAuthStart)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/oauth/microsoft/start", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["auth_url"], "login.microsoftonline.com/tenant-1")
	assert.Contains(t, body["auth_url"], "state="+body["state"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/oauth/github/start", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlers_OAuthCallback_StateMismatch(t *testing.T) {
	svc, _, _, _ := newTestService()
	oauthSvc := NewOAuthService(OAuthConfig{ClientID: "client"}, zerolog.Nop())
	h := NewHTTPHandlers(svc, oauthSvc, nil, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/v1/oauth/microsoft/callback?code=abc&state=one", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "two"})
	rec := httptest.NewRecorder()
	h.OAuthCallback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httperrors.ErrCodeOAuthInvalidState, decodeError(t, rec).Error)
}
