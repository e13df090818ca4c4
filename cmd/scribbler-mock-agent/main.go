// Command scribbler-mock-agent serves a simulated agent over HTTP so the
// client can be driven without hardware.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/scribblerbot/scribbler/internal/logging"
	"github.com/scribblerbot/scribbler/internal/mockagent"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("scribbler-mock-agent", pflag.ContinueOnError)
	addr := flags.String("addr", "localhost:8080", "listen address")
	logLevel := flags.String("log-level", "info", "log level: debug, info, warn or error")
	program := flags.String("program", mockagent.ProgramTracie, "program selected at start")
	statusTimeout := flags.Duration("status-timeout", mockagent.DefaultStatusTimeout, "long-poll status timeout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	slogManager := logging.NewSlogManager()
	slogManager.Setup(logging.Options{Level: *logLevel})
	logger := slogManager.Logger()

	agent, err := mockagent.New(mockagent.Options{
		Program:       *program,
		StatusTimeout: *statusTimeout,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go agent.Run(ctx)

	server := &http.Server{
		Addr:              *addr,
		Handler:           agent,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Mock agent listening", "addr", *addr, "program", *program)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// long polls hold requests open for up to the status timeout
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
