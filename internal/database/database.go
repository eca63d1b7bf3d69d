// Package database provides connection management for the Access source and
// the PostgreSQL destination.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/alexbrainman/odbc" // ODBC driver for the Access source
	_ "github.com/lib/pq"            // PostgreSQL driver for the destination

	"github.com/dbsmedya/accmirror/internal/config"
)

// Manager handles the two database connections of a mirror: the legacy
// Access file read over ODBC and the PostgreSQL destination.
type Manager struct {
	Source      *sql.DB
	Destination *sql.DB
	config      *config.Config
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
	}
}

// Connect establishes both connections. On failure the already-open
// connection is closed before returning.
func (m *Manager) Connect(ctx context.Context) error {
	var err error

	m.Source, err = m.connectWithRetry(ctx, func() (*sql.DB, error) {
		return m.openSource()
	})
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}

	m.Destination, err = m.connectWithRetry(ctx, func() (*sql.DB, error) {
		return m.openDestination()
	})
	if err != nil {
		m.Source.Close()
		m.Source = nil
		return fmt.Errorf("failed to connect to destination database: %w", err)
	}

	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context, open func() (*sql.DB, error)) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = open()
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

// openSource opens the ODBC connection to the Access database. Access has no
// server-side concurrency to speak of, so the pool is pinned to a single
// connection.
func (m *Manager) openSource() (*sql.DB, error) {
	db, err := sql.Open("odbc", m.config.Source.DSN)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// openDestination opens the PostgreSQL connection.
func (m *Manager) openDestination() (*sql.DB, error) {
	dsn := BuildDestinationDSN(&m.config.Destination)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if m.config.Destination.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.Destination.MaxConnections)
	}
	if m.config.Destination.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.Destination.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDestinationDSN constructs a libpq key/value DSN from configuration.
func BuildDestinationDSN(cfg *config.DestinationConfig) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, cfg.Password, cfg.Database, sslMode,
	)
}

// Close closes both connections gracefully.
func (m *Manager) Close() error {
	var errs []error

	if m.Destination != nil {
		if err := m.Destination.Close(); err != nil {
			errs = append(errs, fmt.Errorf("destination close: %w", err))
		}
	}

	if m.Source != nil {
		if err := m.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	return nil
}

// Ping verifies both connections are alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.Source != nil {
		if err := m.Source.PingContext(ctx); err != nil {
			return fmt.Errorf("source ping failed: %w", err)
		}
	}

	if m.Destination != nil {
		if err := m.Destination.PingContext(ctx); err != nil {
			return fmt.Errorf("destination ping failed: %w", err)
		}
	}

	return nil
}
