package ws

import "encoding/json"

// MessageType constants for the admin feed protocol.
const (
	// Client -> Server
	TypePing = "ping"

	// Server -> Client
	TypeSessionSaved = "session.saved"
	TypeLevelStats   = "stats.level"
	TypePong         = "pong"
	TypeError        = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a typed message.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Server Messages (outgoing)

type SessionSavedPayload struct {
	SessionID      string  `json:"session_id"`
	UserID         string  `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	Level          int     `json:"level"`
	Score          int     `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	Percentage     int     `json:"percentage"`
	SavedAt        string  `json:"saved_at"`
}

type LevelStatsPayload struct {
	Level int          `json:"level"`
	Top   []LevelEntry `json:"top"`
}

type LevelEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	BestScore   int    `json:"best_score"`
	Attempts    int    `json:"attempts"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
