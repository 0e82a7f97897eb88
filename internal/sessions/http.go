package sessions

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/game"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// CreateRequest is a summary built by an external client.
type CreateRequest struct {
	Level            int                 `json:"level"`
	Score            int                 `json:"score"`
	TotalQuestions   int                 `json:"total_questions"`
	Answers          []game.AnswerRecord `json:"answers"`
	StartTime        time.Time           `json:"start_time"`
	EndTime          time.Time           `json:"end_time"`
	TimeTakenSeconds int                 `json:"time_taken_seconds"`
	FeedbackText     string              `json:"feedback_text"`
}

// HTTPHandler exposes the session endpoints.
type HTTPHandler struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandler constructs a sessions HTTP handler.
func NewHTTPHandler(svc *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "sessions_http").Logger(),
	}
}

// Create handles POST /v1/sessions (student token). Identity comes from the token.
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	rec := Record{
		UserID:           claims.UserID,
		StudentID:        claims.StudentID,
		Email:            claims.Email,
		Mobile:           claims.Mobile,
		Level:            req.Level,
		Score:            req.Score,
		TotalQuestions:   req.TotalQuestions,
		Answers:          req.Answers,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		TimeTakenSeconds: req.TimeTakenSeconds,
		FeedbackText:     req.FeedbackText,
	}

	saved, err := h.svc.Save(r.Context(), rec)
	if err != nil {
		if errors.Is(err, ErrInvalidRecord) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeValidationFailed, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("session save failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSaveFailed, "Failed to save session")
		return
	}

	h.respondJSON(w, http.StatusCreated, saved)
}

// List handles GET /v1/sessions (admin).
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	records, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("session list failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSessionFetchFailed, "Failed to fetch sessions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": records,
		"count":    len(records),
	})
}

// Get handles GET /v1/sessions/{id} (admin).
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "Invalid session ID")
		return
	}

	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", id.String()).Msg("session fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSessionFetchFailed, "Failed to fetch session")
		return
	}

	h.respondJSON(w, http.StatusOK, rec)
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}
