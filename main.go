// main.go
//
// Entry point for the Pitchdork game server.
// Startup:
//   - Config from flags / env / .env, log level.
//   - Bundled album catalog (ALBUMS_FILE or embedded).
//   - SQLite open + migrations.
//   - Album source: REST backend, local SQLite table (seeded from the
//     catalog) or the catalog itself, always wrapped with the catalog fallback.
//   - Session store + idle sweeper, HTTP server with graceful shutdown.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/config"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/db"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/httpserver"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/store"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := albums.Init(cfg.AlbumsFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load album catalog")
	}
	catalog := albums.Default()

	conn, err := db.OpenMigrated(ctx, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open database")
	}
	defer conn.Close()

	primary, err := albumSource(ctx, cfg, conn, catalog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up album source")
	}

	sessions := store.NewMemoryStore()
	go store.RunSweeper(ctx, sessions, time.Minute, cfg.SessionTTL, func(n int) {
		if n > 0 {
			log.Info().Int("swept", n).Int("live", sessions.Len()).Msg("idle sessions removed")
		}
	})

	srv := httpserver.New(cfg, httpserver.Deps{
		Store:   sessions,
		DB:      conn,
		Albums:  albums.NewFallbackSource(primary, catalog),
		Catalog: catalog,
	})

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().
		Int("port", cfg.Port).
		Str("albums", cfg.AlbumsSource).
		Int("catalog", catalog.Len()).
		Float64("dialSensitivity", cfg.DialSensitivity).
		Msg("starting go-server")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
