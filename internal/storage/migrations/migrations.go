// Package migrations holds the schema of every SQL backend and applies it with goose
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql mysql/*.sql
var migrationsFS embed.FS

type Command string

const (
	Up     Command = "up"
	Down   Command = "down"
	Status Command = "status"
)

// Run applies command to db using migrations of given dialect (postgres or mysql)
func Run(ctx context.Context, db *sql.DB, dialect string, command Command) error {
	switch dialect {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	var err error
	switch command {
	case Up:
		err = goose.UpContext(ctx, db, dialect)
	case Down:
		err = goose.DownContext(ctx, db, dialect)
	case Status:
		err = goose.StatusContext(ctx, db, dialect)
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	if err != nil {
		return fmt.Errorf("migrating %s (%s): %w", dialect, command, err)
	}

	return nil
}
