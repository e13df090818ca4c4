package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/scribblerbot/scribbler/pkg/streaming"
)

const (
	outboxSize  = 4096
	ackBuffer   = 16
	maxRedials  = 10
	firstRedial = time.Second
	maxRedial   = 30 * time.Second
	writeWait   = 10 * time.Second
)

// DefaultAckTimeout bounds the wait for start_session and end_session acks.
const DefaultAckTimeout = 10 * time.Second

// stream owns one viewer socket. A single pump goroutine writes to the
// socket and redials it; a reader per socket routes acks back.
type stream struct {
	url    string
	secret string
	logger *slog.Logger

	outbox chan []byte
	acks   chan streaming.AckMessage
	done   chan struct{}
	pumped chan struct{}

	started   atomic.Bool
	closeOnce sync.Once
	dropped   atomic.Uint64

	mu     sync.Mutex
	replay []byte // start_session, written first after every redial
}

func newStream(rawURL, secret string, logger *slog.Logger) *stream {
	return &stream{
		url:    rawURL,
		secret: secret,
		logger: logger,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBuffer),
		done:   make(chan struct{}),
		pumped: make(chan struct{}),
	}
}

// open dials once and starts the pump. A failed first dial is returned to
// the caller; later failures are retried by the pump.
func (s *stream) open() error {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	s.started.Store(true)
	go s.pump(conn)
	return nil
}

func (s *stream) dial() (*ws.Conn, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	q := u.Query()
	q.Set("secret", s.secret)
	u.RawQuery = q.Encode()

	conn, _, err := ws.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (s *stream) pump(conn *ws.Conn) {
	defer close(s.pumped)
	lost := s.read(conn)

	for {
		select {
		case <-s.done:
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case err := <-lost:
			s.logger.Warn("Viewer connection lost", "error", err)
		case data := <-s.outbox:
			err := write(conn, data)
			if err == nil {
				continue
			}
			s.logger.Warn("Viewer write failed", "error", err)
		}

		_ = conn.Close()
		if conn = s.redial(); conn == nil {
			return
		}
		lost = s.read(conn)
	}
}

// read starts the reader for conn. The returned channel yields the error
// that ended it.
func (s *stream) read(conn *ws.Conn) <-chan error {
	lost := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				lost <- err
				return
			}
			var ack streaming.AckMessage
			if err := json.Unmarshal(raw, &ack); err != nil || ack.Type != "ack" {
				s.logger.Debug("Ignoring viewer message", "raw", string(raw))
				continue
			}
			select {
			case s.acks <- ack:
			default:
				s.logger.Debug("Ack buffer full, dropping", "for", ack.For)
			}
		}
	}()
	return lost
}

// redial retries with capped exponential backoff and replays start_session
// on the new socket. It returns nil when closed or out of attempts.
func (s *stream) redial() *ws.Conn {
	wait := firstRedial
	for attempt := 1; attempt <= maxRedials; attempt++ {
		s.logger.Info("Redialing viewer", "attempt", attempt, "wait", wait)
		select {
		case <-s.done:
			return nil
		case <-time.After(wait):
		}

		conn, err := s.dial()
		if err == nil {
			err = s.replayStart(conn)
			if err == nil {
				s.logger.Info("Viewer reconnected", "attempt", attempt)
				return conn
			}
			_ = conn.Close()
		}
		s.logger.Warn("Redial failed", "attempt", attempt, "error", err)
		wait = min(wait*2, maxRedial)
	}
	s.logger.Error("Giving up on viewer", "attempts", maxRedials)
	return nil
}

func (s *stream) replayStart(conn *ws.Conn) error {
	msg := s.replayMessage()
	if msg == nil {
		return nil
	}
	if err := write(conn, msg); err != nil {
		return fmt.Errorf("replay start_session: %w", err)
	}
	return nil
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

func (s *stream) setReplay(msg []byte) {
	s.mu.Lock()
	s.replay = msg
	s.mu.Unlock()
}

func (s *stream) replayMessage() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replay
}

// send queues data without blocking. A full outbox drops it.
func (s *stream) send(data []byte) {
	select {
	case s.outbox <- data:
	default:
		s.dropped.Add(1)
		s.logger.Warn("Viewer outbox full, dropping message")
	}
}

// request queues data and waits for the viewer to ack ackFor.
func (s *stream) request(data []byte, ackFor string, timeout time.Duration) error {
	s.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-s.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-s.done:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

// close stops the pump, which sends a close frame on its way out.
func (s *stream) close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.started.Load() {
			<-s.pumped
		}
	})
	return nil
}
