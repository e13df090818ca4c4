package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/scribblerbot/scribbler/internal/config"
	"github.com/scribblerbot/scribbler/internal/influx"
	"github.com/scribblerbot/scribbler/internal/storage"
	"github.com/scribblerbot/scribbler/internal/storage/memory"
	pgstorage "github.com/scribblerbot/scribbler/internal/storage/postgres"
	sqlitestorage "github.com/scribblerbot/scribbler/internal/storage/sqlite"
	wsstorage "github.com/scribblerbot/scribbler/internal/storage/websocket"
)

// recorderTypes splits the comma separated recorder.type value.
func recorderTypes(value string) []string {
	var types []string
	for _, t := range strings.Split(value, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func createStorageBackend(kind string, cfg config.Settings, logger *slog.Logger) (storage.Backend, error) {
	switch kind {
	case "memory":
		return memory.New(cfg.Recorder.Memory), nil
	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{Path: cfg.Recorder.SQLite.Path}), nil
	case "postgres":
		return pgstorage.New(cfg.DB), nil
	case "websocket":
		wsURL := cfg.Recorder.WebSocket.URL
		if wsURL == "" {
			wsURL = wsstorage.HTTPToWS(cfg.Server.URL) + "/recorder"
		}
		return wsstorage.New(wsstorage.Config{
			URL:    wsURL,
			Secret: cfg.Recorder.WebSocket.Secret,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown recorder type %q", kind)
	}
}

// initStorage builds and initializes every configured backend. Backends that
// fail to initialize are skipped. The returned DB is the first SQL database
// among them, for the monitor's performance rows.
func initStorage(cfg config.Settings, logger *slog.Logger, zlog zerolog.Logger, start time.Time) (storage.Backend, *gorm.DB) {
	var backends storage.Multi
	var db *gorm.DB

	for _, kind := range recorderTypes(cfg.Recorder.Type) {
		if kind == "none" {
			continue
		}
		backend, err := createStorageBackend(kind, cfg, logger)
		if err != nil {
			logger.Error("Failed to create storage backend", "type", kind, "error", err)
			continue
		}
		if err := backend.Init(); err != nil {
			logger.Error("Failed to initialize storage backend", "type", kind, "error", err)
			continue
		}
		logger.Info("Storage backend initialized", "type", kind)
		backends = append(backends, backend)

		if sqlBackend, ok := backend.(interface{ DB() *gorm.DB }); ok && db == nil {
			db = sqlBackend.DB()
		}
	}

	if cfg.Influx.Enabled {
		backupPath := filepath.Join(cfg.LogsDir, fmt.Sprintf("influx_backup_%s.lp.gz", start.Format("20060102_150405")))
		backend := influx.NewBackend(influx.NewManager(cfg.Influx, zlog, backupPath))
		if err := backend.Init(); err != nil {
			logger.Error("Failed to initialize InfluxDB backend", "error", err)
		} else {
			logger.Info("InfluxDB backend initialized", "url", cfg.Influx.URL())
			backends = append(backends, backend)
		}
	}

	switch len(backends) {
	case 0:
		logger.Info("Recording disabled")
		return storage.Nop{}, db
	case 1:
		return backends[0], db
	default:
		return backends, db
	}
}
