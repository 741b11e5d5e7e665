package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"bookshelf/internal/config"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/migrations"
)

func main() {
	command := flag.String("command", string(migrations.Up), "migration command: up, down or status")
	flag.Parse()

	if err := config.SetupLogging(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	cfg := config.LoadStorage()
	if cfg.Driver == storage.DriverMemory {
		slog.Error("Nothing to migrate, memory storage has no schema")
		os.Exit(1)
	}

	ctx := context.Background()

	st, err := storage.Open(ctx, cfg.Driver, cfg.DatabaseUrl, slog.Default())
	if err != nil {
		slog.Error("Failed to open storage: " + err.Error())
		os.Exit(1)
	}
	defer st.Close()

	if err = st.Migrate(ctx, migrations.Command(*command)); err != nil {
		slog.Error(err.Error())
		st.Close()
		os.Exit(1)
	}

	slog.Info("Migration " + *command + " done")
}
