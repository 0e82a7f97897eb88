package game

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	"github.com/gokatarajesh/finlit-quiz/internal/catalog"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
)

// HTTPHandlers exposes the engine to a student client.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates game endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		svc:    svc,
		logger: logger.With().Str("component", "game_http").Logger(),
	}
}

// Register mounts the game routes on mux behind wrap (auth middleware).
func (h *HTTPHandlers) Register(mux *http.ServeMux, wrap func(http.Handler) http.Handler) {
	routes := map[string]http.HandlerFunc{
		"/v1/game":                h.Get,
		"/v1/game/level":          h.SelectLevel,
		"/v1/game/select":         h.SelectCategory,
		"/v1/game/submit":         h.action((*Service).Submit),
		"/v1/game/next":           h.action((*Service).Next),
		"/v1/game/feedback/start": h.action((*Service).ProceedToFeedback),
		"/v1/game/feedback":       h.SubmitFeedback,
		"/v1/game/skip":           h.action((*Service).SkipFeedback),
		"/v1/game/levels":         h.action((*Service).BackToLevels),
		"/v1/game/logout":         h.action((*Service).Logout),
		"/v1/game/reset":          h.action((*Service).Reset),
	}
	for pattern, handler := range routes {
		mux.Handle(pattern, wrap(handler))
	}
}

// Get handles GET /v1/game
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	view, err := h.svc.View(r.Context(), id)
	h.respond(w, view, err)
}

// SelectLevel handles POST /v1/game/level {level}
func (h *HTTPHandlers) SelectLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.svc.SelectLevel(r.Context(), id, req.Level)
	h.respond(w, view, err)
}

// SelectCategory handles POST /v1/game/select {category}
func (h *HTTPHandlers) SelectCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.svc.SelectCategory(r.Context(), id, req.Category)
	h.respond(w, view, err)
}

// SubmitFeedback handles POST /v1/game/feedback {text}. An empty body submits no text.
func (h *HTTPHandlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w)
		return
	}
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	view, err := h.svc.SubmitFeedback(r.Context(), id, req.Text)
	h.respond(w, view, err)
}

func (h *HTTPHandlers) action(op func(*Service, context.Context, Identity) (View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httperrors.RespondMethodNotAllowed(w)
			return
		}
		id, ok := h.identity(w, r)
		if !ok {
			return
		}
		view, err := op(h.svc, r.Context(), id)
		h.respond(w, view, err)
	}
}

func (h *HTTPHandlers) identity(w http.ResponseWriter, r *http.Request) (Identity, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return Identity{}, false
	}
	return Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		StudentID: claims.StudentID,
		Mobile:    claims.Mobile,
	}, true
}

func (h *HTTPHandlers) respond(w http.ResponseWriter, view View, err error) {
	if err == nil {
		h.respondJSON(w, http.StatusOK, view)
		return
	}

	switch {
	case errors.Is(err, ErrUnknownState):
		httperrors.RespondErrorWithDetails(w, http.StatusConflict, httperrors.ErrCodeUnknownState, err.Error(), map[string]interface{}{
			"state": view.State,
		})
	case errors.Is(err, ErrInvalidTransition):
		httperrors.RespondErrorWithDetails(w, http.StatusConflict, httperrors.ErrCodeInvalidTransition, "Action not allowed in the current state", map[string]interface{}{
			"state": view.State,
		})
	case errors.Is(err, ErrLevelAttempted):
		httperrors.RespondConflict(w, httperrors.ErrCodeLevelAlreadyAttempted, "You have already attempted this level")
	case errors.Is(err, ErrInvalidLevel), errors.Is(err, ErrEmptyLevel):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidLevel, err.Error(), "level")
	case errors.Is(err, catalog.ErrUnknownCategory):
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidCategory, err.Error(), "category")
	case errors.Is(err, ErrBusy):
		httperrors.RespondConflict(w, httperrors.ErrCodeGameBusy, "Another request is updating your game, retry shortly")
	case errors.Is(err, ErrSaveFailed):
		httperrors.RespondErrorWithDetails(w, http.StatusBadGateway, httperrors.ErrCodeSaveFailed, "Your session could not be saved.", map[string]interface{}{
			"state": view.State,
		})
	default:
		h.logger.Error().Err(err).Msg("game request failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeGameFailed, "Game request failed")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}
