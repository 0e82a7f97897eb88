package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// LoginObserver is told when a student signs in so per-student state can be prepared.
type LoginObserver interface {
	StudentLoggedIn(ctx context.Context, student Student) error
}

// HTTPHandlers provides REST endpoints for authentication.
type HTTPHandlers struct {
	authSvc  *Service
	oauthSvc *OAuthService
	observer LoginObserver
	logger   zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for auth endpoints. oauthSvc and observer may be nil.
func NewHTTPHandlers(authSvc *Service, oauthSvc *OAuthService, observer LoginObserver, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc:  authSvc,
		oauthSvc: oauthSvc,
		observer: observer,
		logger:   logger.With().Str("component", "auth_http").Logger(),
	}
}

// Register handles POST /v1/auth/register
func (h *HTTPHandlers) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	student, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeRegistrationFailed)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful. Use the one-time code to sign in.",
		"student": student,
	})
}

// RequestOTP handles POST /v1/auth/request-otp
func (h *HTTPHandlers) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req OTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if _, err := h.authSvc.IssueOTP(r.Context(), req.Email); err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeOTPFailed)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "OTP sent",
	})
}

// Login handles POST /v1/auth/login
func (h *HTTPHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	student, tokens, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeLoginFailed)
		return
	}

	h.respondLoggedIn(w, r, student, tokens)
}

// AdminLogin handles POST /v1/auth/admin-login
func (h *HTTPHandlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req AdminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	admin, tokens, err := h.authSvc.AdminLogin(r.Context(), req)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeLoginFailed)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"admin":         admin,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// RefreshToken handles POST /v1/auth/refresh
func (h *HTTPHandlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.RefreshToken == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Refresh token required", "refresh_token")
		return
	}

	tokens, err := h.authSvc.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeRefreshFailed, "Invalid or expired refresh token")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": tokens.AccessToken,
		"expires_in":   tokens.ExpiresIn,
	})
}

// AttemptedLevels handles GET /v1/auth/attempted-levels.
// Students read their own list; admins pass ?email= or ?student_id=.
func (h *HTTPHandlers) AttemptedLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var lookup AttemptLookup
	if claims.IsAdmin() {
		q := r.URL.Query()
		lookup.Email = strings.TrimSpace(q.Get("email"))
		lookup.StudentID = strings.TrimSpace(q.Get("student_id"))
		if lookup.Email == "" && lookup.StudentID == "" {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Email or student ID is required", "email")
			return
		}
	} else {
		lookup.UserID = claims.UserID
	}

	levels, err := h.authSvc.AttemptedLevels(r.Context(), lookup)
	if err != nil {
		h.respondAuthError(w, err, httperrors.ErrCodeStudentNotFound)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"attempted_levels": levels,
	})
}

// OAuthStart handles GET /v1/oauth/{provider}/start
func (h *HTTPHandlers) OAuthStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	if h.oauthSvc == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeOAuthNotConfigured, "OAuth is not configured")
		return
	}

	provider := r.PathValue("provider")
	if provider == "" {
		provider = OAuthProviderMicrosoft
	}

	// CSRF state token
	state := uuid.New().String()

	authURL, err := h.oauthSvc.StartOAuthFlow(provider, state)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthStartFailed, err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"auth_url": authURL,
		"state":    state,
	})
}

// OAuthCallback handles GET /v1/oauth/{provider}/callback
func (h *HTTPHandlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	if h.oauthSvc == nil {
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeOAuthNotConfigured, "OAuth is not configured")
		return
	}

	provider := r.PathValue("provider")
	if provider == "" {
		provider = OAuthProviderMicrosoft
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthMissingCode, "Authorization code required")
		return
	}

	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthInvalidState, "Invalid or missing state parameter")
		return
	}

	info, err := h.oauthSvc.HandleOAuthCallback(r.Context(), provider, code)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeOAuthCallbackFailed, err.Error())
		return
	}

	student, tokens, err := h.authSvc.GetOrCreateOAuthStudent(r.Context(), info)
	if err != nil {
		if errors.Is(err, ErrEmailDomain) {
			httperrors.RespondForbidden(w, httperrors.ErrCodeEmailDomain, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("OAuth student creation failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeUserCreationFailed, "Could not sign in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
	})

	h.respondLoggedIn(w, r, student, tokens)
}

func (h *HTTPHandlers) respondLoggedIn(w http.ResponseWriter, r *http.Request, student *Student, tokens *TokenPair) {
	if h.observer != nil {
		if err := h.observer.StudentLoggedIn(r.Context(), *student); err != nil {
			// the token is still valid; the game lazily starts on first read
			h.logger.Warn().Err(err).Str("user_id", student.ID.String()).Msg("login observer failed")
		}
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"student":          student,
		"attempted_levels": student.AttemptedLevels,
		"access_token":     tokens.AccessToken,
		"refresh_token":    tokens.RefreshToken,
		"expires_in":       tokens.ExpiresIn,
	})
}

func (h *HTTPHandlers) respondAuthError(w http.ResponseWriter, err error, fallbackCode string) {
	switch {
	case errors.Is(err, ErrEmailRequired):
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Email is required", "email")
	case errors.Is(err, ErrPasswordRequired):
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Password is required", "password")
	case errors.Is(err, ErrCredentialRequired):
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Password or OTP is required", "password")
	case errors.Is(err, ErrPasswordTooShort):
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, err.Error(), "password")
	case errors.Is(err, ErrEmailDomain):
		httperrors.RespondValidationError(w, httperrors.ErrCodeEmailDomain, "Only "+h.authSvc.AllowedDomain()+" email addresses are allowed", "email")
	case errors.Is(err, ErrEmailTaken):
		httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyExists, "Email already registered")
	case errors.Is(err, ErrOTPLocked):
		httperrors.RespondError(w, http.StatusTooManyRequests, httperrors.ErrCodeOTPLocked, "Too many failed attempts, request a new code")
	case errors.Is(err, ErrInvalidCredentials):
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, ErrStudentNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeStudentNotFound, "Student not found")
	default:
		h.logger.Error().Err(err).Str("code", fallbackCode).Msg("auth request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, fallbackCode, "Request failed")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}
