package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/response"
	"bookshelf/internal/server"
	"bookshelf/internal/storage"
	"bookshelf/internal/storage/migrations"
	"bookshelf/internal/views"
)

func main() {
	if err := config.SetupLogging(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := storage.Open(ctx, cfg.Driver, cfg.DatabaseUrl, slog.Default())
	if err != nil {
		slog.Error("Failed to open storage: " + err.Error())
		os.Exit(1)
	}
	defer st.Close()

	if cfg.AutoMigrate {
		if err = st.Migrate(ctx, migrations.Up); err != nil {
			slog.Error("Failed to migrate: " + err.Error())
			st.Close()
			os.Exit(1)
		}
	}

	rr := &response.Responder{DebugMode: cfg.DebugMode, Views: views.MustNew()}
	svc := catalog.NewService(st.Books, st.Authors, slog.Default())

	srv := &http.Server{
		Addr: cfg.BindAddr,
		Handler: server.Handler(ctx, svc, rr, server.Options{
			RateLimit:    rate.Limit(cfg.RateLimit),
			RateBurst:    cfg.RateBurst,
			MaxBodyBytes: cfg.MaxBodyBytes,
			PublicUrl:    cfg.PublicUrl,
		}),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		shutdownErr <- srv.Shutdown(sctx)
	}()

	slog.Info("Starting server on "+cfg.BindAddr, slog.String("storage", cfg.Driver))

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		slog.Error("aborting: " + err.Error())
		st.Close()
		os.Exit(1)
	}

	if err = <-shutdownErr; err != nil {
		slog.Error("Failed graceful shutdown: " + err.Error())
		st.Close()
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
