// Package streaming defines the JSON envelopes a live viewer receives over
// WebSocket while a session is recorded.
package streaming

import (
	"encoding/json"

	"github.com/scribblerbot/scribbler/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypePath         = "path"
	TypeSample       = "trace_sample"
	TypeStatus       = "agent_status"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload carries the session being recorded.
type StartSessionPayload struct {
	Session *core.Session `json:"session"`
}
