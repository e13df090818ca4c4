// Package websocket streams a recorded session to a live viewer.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scribblerbot/scribbler/pkg/core"
	"github.com/scribblerbot/scribbler/pkg/streaming"
)

// Config holds WebSocket backend configuration.
type Config struct {
	URL        string
	Secret     string
	AckTimeout time.Duration
}

// Backend streams session data over WebSocket. Records are fire-and-forget;
// starting and ending a session wait for the viewer's ack.
type Backend struct {
	stream *stream
	cfg    Config
}

// New creates a new WebSocket storage backend.
func New(cfg Config, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = DefaultAckTimeout
	}
	return &Backend{
		stream: newStream(cfg.URL, cfg.Secret, logger.With("component", "recorder.websocket")),
		cfg:    cfg,
	}
}

// Init connects to the WebSocket server.
func (b *Backend) Init() error {
	return b.stream.open()
}

// Close disconnects from the WebSocket server.
func (b *Backend) Close() error {
	return b.stream.close()
}

// Dropped returns how many messages were discarded because the send buffer
// was full.
func (b *Backend) Dropped() uint64 {
	return b.stream.dropped.Load()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (b *Backend) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	b.stream.send(data)
	return nil
}

// StartSession announces the session and waits for the ack. The message is
// kept for replay after a reconnect.
func (b *Backend) StartSession(s *core.Session) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Session: s})
	if err != nil {
		return err
	}

	b.stream.setReplay(data)
	return b.stream.request(data, streaming.TypeStartSession, b.cfg.AckTimeout)
}

// EndSession sends end_session and waits for the ack.
func (b *Backend) EndSession() error {
	data, err := marshalEnvelope(streaming.TypeEndSession, nil)
	if err != nil {
		return err
	}
	err = b.stream.request(data, streaming.TypeEndSession, b.cfg.AckTimeout)
	b.stream.setReplay(nil)
	return err
}

func (b *Backend) RecordPath(p *core.PathSubmission) error {
	return b.sendEnvelope(streaming.TypePath, p)
}

func (b *Backend) RecordSample(s *core.SampleRecord) error {
	return b.sendEnvelope(streaming.TypeSample, s)
}

func (b *Backend) RecordStatus(s *core.StatusRecord) error {
	return b.sendEnvelope(streaming.TypeStatus, s)
}

// HTTPToWS converts an HTTP(S) URL to a WebSocket URL.
func HTTPToWS(httpURL string) string {
	s := strings.TrimRight(httpURL, "/")
	s = strings.Replace(s, "https://", "wss://", 1)
	s = strings.Replace(s, "http://", "ws://", 1)
	return s
}
