package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/sessions"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

const analysisFailedMessage = "AI analysis failed."

type sessionGetter interface {
	Get(ctx context.Context, id uuid.UUID) (sessions.Record, error)
}

type analyzer interface {
	Analyze(ctx context.Context, rec sessions.Record) (Result, error)
}

// AnalyzeRequest carries a session supplied by the caller.
type AnalyzeRequest struct {
	Session *sessions.Record `json:"session"`
}

// HTTPHandler exposes the analysis endpoints.
type HTTPHandler struct {
	pipeline analyzer
	sessions sessionGetter
	logger   zerolog.Logger
}

// NewHTTPHandler constructs a report HTTP handler.
func NewHTTPHandler(pipeline analyzer, sessions sessionGetter, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		pipeline: pipeline,
		sessions: sessions,
		logger:   logger.With().Str("component", "report_http").Logger(),
	}
}

// AnalyzeSession handles POST /v1/sessions/{id}/analyze.
func (h *HTTPHandler) AnalyzeSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidSessionID, "Invalid session id", "id")
		return
	}

	rec, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
			return
		}
		h.logger.Error().Err(err).Str("session_id", id.String()).Msg("failed to load session")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeSessionFetchFailed, "Failed to load session")
		return
	}

	h.analyze(w, r, rec)
}

// Analyze handles POST /v1/ai/analyze with the session in the body.
func (h *HTTPHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Session == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "Session data required.", "session")
		return
	}

	h.analyze(w, r, *req.Session)
}

func (h *HTTPHandler) analyze(w http.ResponseWriter, r *http.Request, rec sessions.Record) {
	result, err := h.pipeline.Analyze(r.Context(), rec)
	if err != nil {
		if errors.Is(err, ErrAnalysisTimeout) {
			httperrors.RespondError(w, http.StatusGatewayTimeout, httperrors.ErrCodeAnalysisTimeout, "AI analysis timed out.")
			return
		}
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeAnalysisFailed, analysisFailedMessage)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
