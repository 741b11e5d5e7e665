// Package storage opens one of the supported backends and builds repositories on top of it
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"bookshelf/internal/logger"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/storage/books"
	"bookshelf/internal/storage/migrations"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

type Storage struct {
	Driver  string
	Authors authors.Repository
	Books   books.Repository

	// db is nil for memory driver
	db    *sql.DB
	close func()
}

// Open connects to the backend chosen by driver. dsn is ignored for memory driver.
func Open(ctx context.Context, driver, dsn string, l *slog.Logger) (*Storage, error) {
	switch driver {
	case DriverPostgres:
		return openPostgres(ctx, dsn, l)
	case DriverMySQL:
		return openMySQL(ctx, dsn, l)
	case DriverMemory:
		return &Storage{
			Driver:  driver,
			Authors: authors.NewMemoryRepository(),
			Books:   books.NewMemoryRepository(),
			close:   func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q, one of postgres, mysql or memory expected", driver)
	}
}

func openPostgres(ctx context.Context, dsn string, l *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres DSN: %w", err)
	}

	cfg.ConnConfig.Tracer = logger.NewPGXTracer()

	pg, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	if err = pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	db := stdlib.OpenDBFromPool(pg)

	return &Storage{
		Driver:  DriverPostgres,
		Authors: authors.NewPGXRepository(pg),
		Books:   books.NewPGXRepository(pg, l),
		db:      db,
		close: func() {
			_ = db.Close()
			pg.Close()
		},
	}, nil
}

func openMySQL(ctx context.Context, dsn string, l *slog.Logger) (*Storage, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing mysql DSN: %w", err)
	}

	// DATE and DATETIME columns are scanned into time.Time
	cfg.ParseTime = true
	// goose runs every migration file as one statement batch
	cfg.MultiStatements = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating mysql connector: %w", err)
	}

	db := sql.OpenDB(connector)
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}

	return &Storage{
		Driver:  DriverMySQL,
		Authors: authors.NewMySQLRepository(db),
		Books:   books.NewMySQLRepository(db, l),
		db:      db,
		close:   func() { _ = db.Close() },
	}, nil
}

// Migrate applies schema migrations, it is a no-op for memory driver
func (s *Storage) Migrate(ctx context.Context, command migrations.Command) error {
	if s.db == nil {
		return nil
	}

	return migrations.Run(ctx, s.db, s.Driver, command)
}

func (s *Storage) Close() {
	s.close()
}
