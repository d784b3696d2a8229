// Package pg implements the Execution State Store (spec §4.3) on top of
// PostgreSQL via Bun, grounded on the teacher's
// internal/infrastructure/storage package (db.go's connector/pool setup,
// repository-per-entity split, transactional whole-graph writes).
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/flowengine/engine/internal/storage/models"
)

// Config holds database connection tunables (spec config.DatabaseConfig).
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	Debug           bool
}

// NewDB opens a Bun-wrapped Postgres connection pool and registers models.
func NewDB(cfg Config) (*bun.DB, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithTimeout(30*time.Second),
		pgdriver.WithDialTimeout(10*time.Second),
		pgdriver.WithReadTimeout(10*time.Second),
		pgdriver.WithWriteTimeout(10*time.Second),
	)

	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	db.RegisterModel(
		(*models.WorkflowModel)(nil),
		(*models.NodeModel)(nil),
		(*models.EdgeModel)(nil),
		(*models.ContactModel)(nil),
		(*models.EnrollmentModel)(nil),
		(*models.ExecutionModel)(nil),
		(*models.ExecutionLogModel)(nil),
		(*models.MessageModel)(nil),
		(*models.TemplateModel)(nil),
		(*models.ProviderSettingsModel)(nil),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	return db, nil
}

// EnsureSchema creates every table this store needs if it doesn't already
// exist. The teacher's migration set (bun/migrate with embedded .sql
// files) isn't available to copy here, so schema creation is driven
// directly off the Bun models instead of a migration runner — same Bun
// stack, a simpler on-boot idiom for a module with no migration history to
// preserve yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	tables := []any{
		(*models.WorkflowModel)(nil),
		(*models.NodeModel)(nil),
		(*models.EdgeModel)(nil),
		(*models.ContactModel)(nil),
		(*models.EnrollmentModel)(nil),
		(*models.ExecutionModel)(nil),
		(*models.ExecutionLogModel)(nil),
		(*models.MessageModel)(nil),
		(*models.TemplateModel)(nil),
		(*models.ProviderSettingsModel)(nil),
	}
	for _, t := range tables {
		if _, err := db.NewCreateTable().Model(t).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("pg: create table for %T: %w", t, err)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// Ping verifies connectivity.
func Ping(ctx context.Context, db *bun.DB) error {
	return db.PingContext(ctx)
}

// Stats returns pool statistics for the /metrics endpoint.
func Stats(db *bun.DB) sql.DBStats {
	return db.DB.Stats()
}
