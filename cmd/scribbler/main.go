// Command scribbler is the operator client for a path-following agent: draw
// a path, send it, and watch the agent trace it.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/scribblerbot/scribbler/internal/api"
	"github.com/scribblerbot/scribbler/internal/config"
	"github.com/scribblerbot/scribbler/internal/control"
	"github.com/scribblerbot/scribbler/internal/dispatcher"
	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/internal/monitor"
	intOtel "github.com/scribblerbot/scribbler/internal/otel"
	"github.com/scribblerbot/scribbler/internal/session"
	"github.com/scribblerbot/scribbler/internal/storage"
	"github.com/scribblerbot/scribbler/internal/tui"
	"github.com/scribblerbot/scribbler/internal/worker"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const appName = "scribbler"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.NewFlagSet(appName)
	if err := flags.Parse(args); err != nil {
		return err
	}
	configDir, _ := flags.GetString("config-dir")
	configErr := config.Load(configDir, flags)
	cfg := config.Current()
	start := time.Now()

	// logging
	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs dir: %w", err)
	}
	logPath := logging.LogFilePath(cfg.LogsDir, appName, start)
	var logFile io.Writer
	if f, err := openLogFile(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", logPath, err)
		if !cfg.Headless {
			logFile = io.Discard
		}
	} else {
		defer f.Close()
		logFile = f
	}

	otelProvider, otelErr := intOtel.New(intOtel.ConfigFrom(cfg.OTel, Version, logFileOrDiscard(logFile)))
	var logProvider *sdklog.LoggerProvider
	if otelErr == nil {
		logProvider = otelProvider.LoggerProvider()
	}

	level := logging.ParseLevel(cfg.LogLevel)
	console := logging.NewConsole(cfg.ConsoleMaxLines)
	extra := []slog.Handler{console.Handler(level)}
	if cfg.Headless && logFile != nil {
		extra = append(extra, slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	if cfg.Graylog.Enabled {
		gelf, err := logging.NewGELFHandler(cfg.Graylog.Address, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Graylog at %s: %v\n", cfg.Graylog.Address, err)
		} else {
			defer gelf.Close()
			extra = append(extra, gelf)
		}
	}

	sess := session.NewContext()
	var ctrlRef atomic.Pointer[control.Controller]

	slogManager := logging.NewSlogManager()
	slogManager.SetContextProvider(func() []slog.Attr {
		attrs := []slog.Attr{slog.Uint64("session", uint64(sess.ID()))}
		if c := ctrlRef.Load(); c != nil {
			attrs = append(attrs, c.LogAttrs()...)
		}
		return attrs
	})
	slogManager.Setup(logging.Options{
		File:     logFile,
		Level:    cfg.LogLevel,
		Provider: logProvider,
		Extra:    extra,
	})
	logger := slogManager.Logger()
	logger.Info("Starting", "version", Version, "build", BuildDate, "log", logPath)

	if configErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", configErr)
	}
	if otelErr != nil {
		logger.Error("Failed to initialize OTel provider", "error", otelErr)
	} else if otelProvider.Enabled() {
		logger.Info("OTel provider initialized", "endpoint", cfg.OTel.Endpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// client
	client := api.New(cfg.Server.URL, cfg.Server.Timeout)
	healthCtx, cancelHealth := context.WithTimeout(ctx, 2*time.Second)
	if err := client.Healthcheck(healthCtx); err != nil {
		logger.Warn("Agent is offline", "url", cfg.Server.URL, "error", err)
	} else {
		logger.Info("Agent is online", "url", cfg.Server.URL)
	}
	cancelHealth()

	// flight recorder
	zlog := zerolog.New(logFileOrDiscard(logFile)).With().Timestamp().Str("component", "influx").Logger()
	backend, db := initStorage(cfg, logger, zlog, start)
	recorder := worker.NewRecorder(backend, sess, logger, worker.Options{FlushInterval: cfg.Recorder.FlushInterval})
	if err := recorder.StartSession(cfg.Server.URL); err != nil {
		logger.Error("Failed to start recording session", "error", err)
	}
	recorder.Start(ctx)

	monitorService := monitor.NewService(monitor.Dependencies{
		Recorder: recorder,
		Session:  sess,
		Logger:   logger,
		LogsDir:  cfg.LogsDir,
		DB:       db,
	})
	if err := monitorService.Start(); err != nil {
		logger.Error("Failed to start monitor", "error", err)
	}

	// loop and controller
	disp, err := dispatcher.New(logger, dispatcher.Logged())
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}
	defer disp.Close()

	sink := tui.NewSink()
	opts := []control.Option{control.WithRecorder(recorder)}
	if !cfg.Headless {
		opts = append(opts, control.WithNotifier(sink.Notify), control.WithOnFrame(sink.Frame))
	}
	ctrl := control.New(client, disp, logger, control.Config{
		SettleDelay:      cfg.Trace.SettleDelay,
		SyncInterval:     cfg.Trace.SyncInterval,
		StatusRetryDelay: cfg.Trace.StatusRetryDelay,
		CanvasHeight:     cfg.Canvas.Height,
		ClickRadius:      cfg.Canvas.ClickRadius,
		TraceInterval:    cfg.Trace.UpdateInterval,
		SyncThreshold:    cfg.Trace.SyncThreshold,
	}, opts...)
	ctrlRef.Store(ctrl)

	if err := disp.Post("control.start", func() { ctrl.Start(ctx) }); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}

	if cfg.Headless {
		logger.Info("Running headless")
		if err := disp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Loop stopped", "error", err)
		}
	} else {
		model := tui.New(ctrl, disp, console, sink, tui.Options{
			CanvasWidth:  cfg.Canvas.Width,
			CanvasHeight: cfg.Canvas.Height,
		})
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			logger.Error("Terminal UI stopped", "error", err)
		}
	}

	shutdown(logger, disp, ctrl, recorder, backend, monitorService)

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelFlush()
	if err := slogManager.Flush(flushCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
	}
	if otelProvider != nil {
		_ = otelProvider.Shutdown(flushCtx)
	}
	return nil
}

// shutdown stops the loop first so nothing touches the controller while it
// is torn down, then drains the recorder.
func shutdown(logger *slog.Logger, disp *dispatcher.Dispatcher, ctrl *control.Controller, recorder *worker.Recorder, backend storage.Backend, monitorService *monitor.Service) {
	logger.Info("Shutting down")
	disp.Close()
	ctrl.Stop()

	if err := recorder.Close(); err != nil {
		logger.Error("Failed to close recorder", "error", err)
	}
	if exporter, ok := backend.(storage.Exporter); ok && exporter.LastExportPath() != "" {
		logger.Info("Session exported", "path", exporter.LastExportPath())
	}
	monitorService.Stop()
}

// openLogFile appends to path. Runs started within the same second share
// one file.
func openLogFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
}

func logFileOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
