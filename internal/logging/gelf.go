package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// GELFHandler ships log records to Graylog over UDP.
type GELFHandler struct {
	writer *gelf.Writer
	host   string
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

// NewGELFHandler dials the Graylog input at addr ("host:port").
func NewGELFHandler(addr string, level slog.Leveler) (*GELFHandler, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create GELF writer: %w", err)
	}
	host, err := os.Hostname()
	if err != nil {
		host = "scribbler"
	}
	if level == nil {
		level = slog.LevelInfo
	}
	return &GELFHandler{writer: w, host: host, level: level}, nil
}

// Close releases the UDP connection.
func (h *GELFHandler) Close() error {
	return h.writer.Close()
}

func (h *GELFHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *GELFHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]interface{}, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		extra[h.key(a.Key)] = a.Value.Resolve().String()
	}
	r.Attrs(func(a slog.Attr) bool {
		extra[h.key(a.Key)] = a.Value.Resolve().String()
		return true
	})

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	return h.writer.WriteMessage(&gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(ts.UnixNano()) / float64(time.Second),
		Level:    syslogLevel(r.Level),
		Facility: "scribbler",
		Extra:    extra,
	})
}

func (h *GELFHandler) key(k string) string {
	if h.group != "" {
		k = h.group + "." + k
	}
	return "_" + k
}

func (h *GELFHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *GELFHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}

// syslogLevel maps slog levels onto the syslog severities GELF expects.
func syslogLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return 3
	case l >= slog.LevelWarn:
		return 4
	case l >= slog.LevelInfo:
		return 6
	default:
		return 7
	}
}
