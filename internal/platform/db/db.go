// Package db owns the embedded SQLite database: opening it with the pragmas
// the sync layer relies on, applying the goose migrations, and the health
// endpoint reporting its state.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/clinsync/clinsync/internal/platform/db/migrations"
)

// Open opens or creates the agent database. WAL keeps readers unblocked
// during sync writes, foreign keys enforce join-row cascade, and the busy
// timeout absorbs writer contention between API handlers and a running sync.
// Pragmas ride the DSN so every pooled connection gets them, not just the
// one that happens to execute a setup statement.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

// Migrate applies every pending embedded migration.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.Up(db, ".")
}

// MigrationStatus prints each embedded migration's applied state.
func MigrationStatus(db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return goose.Status(db, ".")
}

// Stats reports database handle statistics for the health endpoint.
type Stats struct {
	OpenConnections int    `json:"open_connections"`
	InUse           int    `json:"in_use"`
	Idle            int    `json:"idle"`
	WaitCount       int64  `json:"wait_count"`
	WaitDuration    string `json:"wait_duration"`
	Healthy         bool   `json:"healthy"`
}

// GetStats returns current handle statistics.
func GetStats(db *sql.DB) *Stats {
	s := db.Stats()
	return &Stats{
		OpenConnections: s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDuration:    s.WaitDuration.String(),
		Healthy:         true,
	}
}

// HealthHandler returns the handler for the database health check endpoint.
func HealthHandler(db *sql.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		err := db.PingContext(ctx)
		stats := GetStats(db)

		if err != nil {
			stats.Healthy = false
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
				"db":     stats,
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"db":     stats,
		})
	}
}
