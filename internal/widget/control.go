package widget

import (
	"encoding/json"
	"fmt"
)

// ControlMessage is the JSON status/control envelope the backend sends as
// text frames on the conversation socket. These are logged, never acted on.
type ControlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message,omitempty"`
	Bytes     int64  `json:"bytesReceived,omitempty"`
}

func parseControlMessage(data []byte) (*ControlMessage, error) {
	var msg ControlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("control message missing type")
	}
	return &msg, nil
}
