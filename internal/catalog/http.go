package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// HTTPHandler serves the public level and category metadata.
type HTTPHandler struct {
	bank   *Bank
	logger zerolog.Logger
}

// NewHTTPHandler constructs a catalog HTTP handler.
func NewHTTPHandler(bank *Bank, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		bank:   bank,
		logger: logger.With().Str("component", "catalog_http").Logger(),
	}
}

// Levels handles GET /v1/catalog/levels
func (h *HTTPHandler) Levels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	h.respondJSON(w, map[string]interface{}{"levels": h.bank.Levels()})
}

// Categories handles GET /v1/catalog/categories
func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	h.respondJSON(w, map[string]interface{}{"categories": h.bank.Categories()})
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
