// Seed adds authors to the catalog, names come from arguments or, if there are none, from stdin lines
package main

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"

	"bookshelf/internal/config"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/authors"
	"bookshelf/internal/types"
)

func main() {
	if err := config.SetupLogging(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	names := os.Args[1:]
	if len(names) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			names = append(names, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			slog.Error("Failed to read author names: " + err.Error())
			os.Exit(1)
		}
	}

	cfg := config.LoadStorage()
	ctx := context.Background()

	st, err := storage.Open(ctx, cfg.Driver, cfg.DatabaseUrl, slog.Default())
	if err != nil {
		slog.Error("Failed to open storage: " + err.Error())
		os.Exit(1)
	}
	defer st.Close()

	added, err := seed(ctx, st.Authors, names)
	if err != nil {
		slog.Error("Failed to seed authors: " + err.Error())
		st.Close()
		os.Exit(1)
	}

	slog.Info("Seeded authors", slog.Int("added", added), slog.Int("requested", len(names)))
}

// seed saves authors whose names are not in the catalog yet
func seed(ctx context.Context, ar authors.Repository, names []string) (int, error) {
	existing, err := ar.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[strings.ToLower(a.Name)] = true
	}

	var fresh []*types.Author
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || known[strings.ToLower(name)] {
			continue
		}
		known[strings.ToLower(name)] = true
		fresh = append(fresh, &types.Author{Name: name})
	}

	if len(fresh) == 0 {
		return 0, nil
	}

	return len(fresh), ar.Save(ctx, fresh...)
}
