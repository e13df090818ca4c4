// Package postgres records sessions into PostgreSQL through the GORM backend.
package postgres

import (
	"fmt"

	"github.com/scribblerbot/scribbler/internal/config"
	"github.com/scribblerbot/scribbler/internal/database"
	gormstorage "github.com/scribblerbot/scribbler/internal/storage/gorm"
)

// Backend wraps the GORM backend with a Postgres connection.
type Backend struct {
	*gormstorage.Backend
	cfg config.DBConfig
}

// New creates a new Postgres storage backend. The connection is made by Init.
func New(cfg config.DBConfig) *Backend {
	return &Backend{
		Backend: gormstorage.New(nil),
		cfg:     cfg,
	}
}

// Init connects to postgres and migrates the schema.
func (b *Backend) Init() error {
	db, err := database.OpenPostgres(b.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.SetDB(db)
	return b.Backend.Init()
}
