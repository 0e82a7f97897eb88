package stats

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// HTTPHandler exposes REST endpoints for level stats.
type HTTPHandler struct {
	svc    levelRanker
	logger zerolog.Logger
}

// NewHTTPHandler constructs a stats HTTP handler.
func NewHTTPHandler(svc levelRanker, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:    svc,
		logger: logger.With().Str("component", "stats_http").Logger(),
	}
}

// HandleLevel responds with the best scores on one level.
// Route: GET /v1/stats/levels/{level}?limit=10
func (h *HTTPHandler) HandleLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}

	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidLevel, "Level must be a number", "level")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	entries, err := h.svc.Top(r.Context(), level, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidLevel) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidLevel, "Level must be between 1 and 4", "level")
			return
		}
		h.logger.Warn().Err(err).Int("level", level).Msg("level stats fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeStatsFetchFailed, "Failed to fetch level stats")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"level":        level,
		"top":          toLevelEntries(entries),
		"retrieved_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
