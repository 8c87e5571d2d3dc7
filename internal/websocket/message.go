package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message defines the structure for websocket messages.
type Message struct {
	Action  string      `json:"action"`
	Payload interface{} `json:"payload"`
}

// NewMessage marshals an action plus payload into a wire frame.
func NewMessage(action string, payload interface{}) []byte {
	b, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to marshal websocket message")
		return []byte(`{"action":"error"}`)
	}
	return b
}
