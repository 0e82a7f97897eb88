package stats

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/finlit-quiz/internal/auth"
	httperrors "github.com/gokatarajesh/finlit-quiz/pkg/http/errors"
	ws "github.com/gokatarajesh/finlit-quiz/pkg/http/ws"
)

// FeedHandler upgrades admin connections onto the live session feed.
type FeedHandler struct {
	validator auth.TokenValidator
	hub       *ws.Hub
	upgrader  *websocket.Upgrader
	logger    zerolog.Logger
}

// NewFeedHandler constructs the admin feed handler. Browser origins must
// appear in allowedOrigins.
func NewFeedHandler(validator auth.TokenValidator, hub *ws.Hub, allowedOrigins []string, logger zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		validator: validator,
		hub:       hub,
		upgrader:  ws.NewUpgrader(allowedOrigins),
		logger:    logger.With().Str("component", "admin_feed").Logger(),
	}
}

// ServeHTTP handles GET /ws/admin?token=. Browsers cannot set headers on
// WebSocket requests, so the access token travels in the query string.
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	claims, err := h.validator.ValidateToken(token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("feed token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}
	if !claims.IsAdmin() {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Admin access required")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	id := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(id, wsConn)
	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		if msg.Type == ws.TypePing {
			return h.hub.SendTo(id, ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
		}
		errMsg, err := ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    httperrors.ErrCodeUnknownMessageType,
			Message: "Unknown message type: " + msg.Type,
		})
		if err != nil {
			return err
		}
		return h.hub.SendTo(id, errMsg)
	})

	h.hub.UnregisterConnection(id)
}
