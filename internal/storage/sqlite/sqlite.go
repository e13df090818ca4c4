// Package sqlitestorage records sessions into a SQLite file through the GORM
// backend. It uses the pure-Go glebarez driver, so no cgo is needed.
package sqlitestorage

import (
	"fmt"

	"github.com/scribblerbot/scribbler/internal/database"
	gormstorage "github.com/scribblerbot/scribbler/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	Path string // database file, or database.MemorySQLite
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	cfg Config
}

// New creates a new SQLite storage backend. The file is opened by Init.
func New(cfg Config) *Backend {
	return &Backend{
		Backend: gormstorage.New(nil),
		cfg:     cfg,
	}
}

// Init opens the database file and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.OpenSQLite(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite DB: %w", err)
	}
	b.SetDB(db)
	return b.Backend.Init()
}
