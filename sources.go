// sources.go
//
// Album source selection for ALBUMS_SOURCE:
//   rest   → hosted backend (PostgREST-style API)
//   sqlite → local albums table, seeded from the catalog on every start
//   static → the bundled catalog only
//
// The returned source is the primary; main wraps it with the catalog fallback.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/pitchdork/apps/go-server/internal/albums"
	"github.com/robalobadob/pitchdork/apps/go-server/internal/config"
)

func albumSource(ctx context.Context, cfg config.Config, conn *sql.DB, catalog *albums.Catalog) (albums.Source, error) {
	switch cfg.AlbumsSource {
	case config.SourceREST:
		return albums.NewRESTSource(cfg.AlbumsURL, cfg.AlbumsKey, cfg.AlbumsTable, cfg.ReviewsTable), nil

	case config.SourceSQLite:
		src := albums.NewSQLiteSource(conn)
		n, err := src.Seed(ctx, catalog.Albums())
		if err != nil {
			return nil, fmt.Errorf("seed albums: %w", err)
		}
		log.Info().Int("inserted", n).Msg("album table seeded")
		return src, nil

	case config.SourceStatic:
		// nil primary: the fallback serves the catalog directly
		return nil, nil
	}
	return nil, fmt.Errorf("unknown album source %q", cfg.AlbumsSource)
}
