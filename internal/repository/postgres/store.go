// Package postgres implements the engine's store contract plus the admin
// queries the API layer needs, all against PostgreSQL via lib/pq.
package postgres

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/omegatable/outreach/internal/config"
)

// Store is the PostgreSQL-backed implementation of engine.Store and the
// admin query surface. One Store is shared by every campaign loop and every
// HTTP handler; *sql.DB handles the pooling.
type Store struct{ db *sql.DB }

// NewStore creates a Store over an open database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Open connects to PostgreSQL with the configured pool limits and verifies
// the connection.
func Open(cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }
