// Package logging builds the client's slog pipeline: a log file, the
// operator console, and optional OTel and Graylog sinks.
package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// LogFilePath names the log file for a run started at start.
func LogFilePath(logsDir, app string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", app, start.Format("20060102_150405")))
}

// ParseLevel accepts slog level names in any case, with optional offsets
// such as "warn+2". Anything else is info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
