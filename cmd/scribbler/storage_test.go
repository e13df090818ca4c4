package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/internal/config"
	"github.com/scribblerbot/scribbler/internal/storage"
	"github.com/scribblerbot/scribbler/internal/storage/memory"
	sqlitestorage "github.com/scribblerbot/scribbler/internal/storage/sqlite"
	wsstorage "github.com/scribblerbot/scribbler/internal/storage/websocket"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderTypes(t *testing.T) {
	assert.Equal(t, []string{"memory", "sqlite"}, recorderTypes(" memory, SQLite ,"))
	assert.Nil(t, recorderTypes(""))
}

func TestCreateStorageBackend(t *testing.T) {
	cfg := config.Settings{Server: config.ServerConfig{URL: "http://robot:8080"}}

	b, err := createStorageBackend("memory", cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.Backend{}, b)

	b, err = createStorageBackend("sqlite", cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &sqlitestorage.Backend{}, b)

	b, err = createStorageBackend("websocket", cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &wsstorage.Backend{}, b)

	_, err = createStorageBackend("tape", cfg, quietLogger())
	assert.ErrorContains(t, err, `unknown recorder type "tape"`)
}

func TestInitStorage_NoneIsNop(t *testing.T) {
	cfg := config.Settings{Recorder: config.RecorderConfig{Type: "none"}}

	backend, db := initStorage(cfg, quietLogger(), zerolog.Nop(), time.Now())
	assert.Equal(t, storage.Nop{}, backend)
	assert.Nil(t, db)
}

func TestInitStorage_SQLiteAndMemory(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Settings{
		LogsDir: dir,
		Recorder: config.RecorderConfig{
			Type:   "memory,sqlite",
			Memory: config.MemoryConfig{OutputDir: dir},
			SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "rec.db")},
		},
	}

	backend, db := initStorage(cfg, quietLogger(), zerolog.Nop(), time.Now())
	t.Cleanup(func() { _ = backend.Close() })

	multi, ok := backend.(storage.Multi)
	require.True(t, ok)
	assert.Len(t, multi, 2)
	assert.NotNil(t, db)
}

func TestInitStorage_SkipsFailingBackend(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Settings{
		Recorder: config.RecorderConfig{
			Type:      "memory,websocket",
			Memory:    config.MemoryConfig{OutputDir: dir},
			WebSocket: config.WebSocketConfig{URL: "ws://127.0.0.1:1/recorder"},
		},
	}

	backend, _ := initStorage(cfg, quietLogger(), zerolog.Nop(), time.Now())
	assert.IsType(t, &memory.Backend{}, backend)
}
