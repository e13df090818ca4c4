package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdout receives the text log when Options has no File.
var stdout io.Writer = os.Stdout

// Options selects the sinks for SlogManager.Setup.
type Options struct {
	// File receives the text log. Nil means stdout.
	File  io.Writer
	Level string
	// Provider bridges records to OTel when set.
	Provider *sdklog.LoggerProvider
	// Extra handlers, such as the operator console or Graylog.
	Extra []slog.Handler
}

// SlogManager owns the process logger and the OTel provider it flushes.
type SlogManager struct {
	logger   *slog.Logger
	level    slog.Level
	provider *sdklog.LoggerProvider
	context  ContextProvider
}

func NewSlogManager() *SlogManager {
	return &SlogManager{level: slog.LevelInfo}
}

// SetContextProvider installs attrs added to every record. It takes effect
// on the next Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.context = p
}

// Setup replaces the logger with one writing to the sinks in opts.
func (m *SlogManager) Setup(opts Options) {
	m.level = ParseLevel(opts.Level)
	m.provider = opts.Provider

	out := opts.File
	if out == nil {
		out = stdout
	}
	handlers := []slog.Handler{slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:       m.level,
		ReplaceAttr: utcTime,
	})}
	if opts.Provider != nil {
		handlers = append(handlers, otelslog.NewHandler("scribbler", otelslog.WithLoggerProvider(opts.Provider)))
	}
	handlers = append(handlers, opts.Extra...)

	m.logger = slog.New(WithContext(NewFanout(handlers...), m.context))
	m.logger.Info("Logging initialized", "level", m.level.String())
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.TimeKey {
		return a
	}
	if t, ok := a.Value.Any().(time.Time); ok {
		a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
	}
	return a
}

// Logger returns slog.Default until Setup runs.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

func (m *SlogManager) Level() slog.Level {
	return m.level
}

// Flush pushes buffered OTel records.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.ForceFlush(ctx)
}
