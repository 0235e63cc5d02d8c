package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Layr-Labs/factory-event-indexer/pkg/config"
)

//go:embed migrations/*.up.sql
var migrationsFS embed.FS

const (
	// DefaultQueryTimeout bounds individual ledger statements.
	DefaultQueryTimeout = 30 * time.Second

	migrationTimeout = 5 * time.Minute
	migrationsTable  = "schema_migrations"
)

type DB struct {
	*sql.DB
	logger *zap.Logger
}

func Open(ctx context.Context, cfg *config.DBConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		// nolint:errcheck
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return NewDB(db, logger), nil
}

// NewDB wraps an existing handle, used with sqlmock in tests.
func NewDB(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// RunMigrations applies the embedded *.up.sql files that are not yet recorded
// in schema_migrations. Concurrent callers serialize on the driver's advisory
// lock; an up-to-date schema is not an error.
func (db *DB) RunMigrations(ctx context.Context) error {
	m, err := db.newMigrator(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			db.logger.Sugar().Warnw("Failed to close migrator", zap.Errors("errors", []error{srcErr, dbErr}))
		}
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	start := time.Now()
	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		db.logger.Sugar().Infow("No migrations needed to be applied")
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	default:
		version, _, verr := m.Version()
		if verr != nil {
			return fmt.Errorf("read migration version: %w", verr)
		}
		db.logger.Sugar().Infow("Applied migrations",
			zap.Uint("version", version),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return nil
}

// newMigrator binds golang-migrate to one dedicated connection so the lock,
// statement timeout and migration SQL share a session. Closing the migrator
// releases that connection and leaves the pool open.
func (db *DB) newMigrator(ctx context.Context) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		// nolint:errcheck
		src.Close()
		return nil, fmt.Errorf("acquire migration connection: %w", err)
	}

	driver, err := migratepg.WithConnection(ctx, conn, &migratepg.Config{
		MigrationsTable:  migrationsTable,
		StatementTimeout: migrationTimeout,
	})
	if err != nil {
		// nolint:errcheck
		conn.Close()
		// nolint:errcheck
		src.Close()
		return nil, fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		// nolint:errcheck
		driver.Close()
		// nolint:errcheck
		src.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	m.Log = &migrateLogger{logger: db.logger}
	return m, nil
}

// migrateLogger forwards golang-migrate output to zap.
type migrateLogger struct {
	logger *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.logger.Sugar().Debugf(strings.TrimSpace(format), v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.Core().Enabled(zap.DebugLevel)
}
