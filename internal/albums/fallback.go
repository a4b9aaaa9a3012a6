// internal/albums/fallback.go
//
// Failure handling for album retrieval, plus the per-session loader.
//
// FallbackSource:
//   - Tries the primary source.
//   - On error (or fewer rows than requested) logs a warning and substitutes
//     the static catalog. The player never sees the failure.
//
// Loader:
//   - Prefetch starts the initial fetch in the background as soon as a
//     session is created, so the start screen stays responsive.
//   - Initial waits for that fetch and caches it; later calls return the cache.
//   - Fresh always re-fetches ("play again").

package albums

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// FallbackSource wraps a primary Source with a static substitute.
type FallbackSource struct {
	Primary Source
	Static  *Catalog
}

// NewFallbackSource wires primary with the catalog fallback.
// A nil primary means the catalog is used directly.
func NewFallbackSource(primary Source, static *Catalog) *FallbackSource {
	return &FallbackSource{Primary: primary, Static: static}
}

// RandomAlbums implements Source.
func (f *FallbackSource) RandomAlbums(ctx context.Context, count int) ([]Album, error) {
	if f.Primary != nil {
		out, err := f.Primary.RandomAlbums(ctx, count)
		if err == nil && len(out) >= count {
			return out, nil
		}
		if err != nil {
			log.Warn().Err(err).Int("count", count).Msg("album source failed, falling back to bundled catalog")
		} else {
			log.Warn().Int("count", count).Int("got", len(out)).Msg("album source returned too few rows, falling back to bundled catalog")
		}
	}
	return f.Static.RandomAlbums(ctx, count)
}

// AlbumsByID implements Source.
func (f *FallbackSource) AlbumsByID(ctx context.Context, ids []string) ([]Album, error) {
	if f.Primary != nil {
		out, err := f.Primary.AlbumsByID(ctx, ids)
		if err == nil {
			return out, nil
		}
		log.Warn().Err(err).Msg("album lookup failed, falling back to bundled catalog")
	}
	return f.Static.AlbumsByID(ctx, ids)
}

// AlbumByID implements Source.
func (f *FallbackSource) AlbumByID(ctx context.Context, id string) (Album, error) {
	if f.Primary != nil {
		a, err := f.Primary.AlbumByID(ctx, id)
		if err == nil {
			return a, nil
		}
		if err != ErrNotFound {
			log.Warn().Err(err).Str("albumId", id).Msg("album lookup failed, falling back to bundled catalog")
		}
	}
	return f.Static.AlbumByID(ctx, id)
}

// Loader fetches album sequences for one session.
type Loader struct {
	src   Source
	count int

	once   sync.Once
	ready  chan struct{}
	albums []Album
}

// NewLoader returns a Loader drawing count albums per game from src.
func NewLoader(src Source, count int) *Loader {
	return &Loader{src: src, count: count, ready: make(chan struct{})}
}

// Prefetch starts the initial fetch if it has not started yet.
// ctx bounds the fetch itself, not the caller.
func (l *Loader) Prefetch(ctx context.Context) {
	l.once.Do(func() {
		go func() {
			l.albums = l.fetch(ctx)
			close(l.ready)
		}()
	})
}

// Loading reports whether the initial fetch is still in flight.
func (l *Loader) Loading() bool {
	select {
	case <-l.ready:
		return false
	default:
		return true
	}
}

// Initial returns the cached initial sequence, waiting for Prefetch if needed.
func (l *Loader) Initial(ctx context.Context) []Album {
	l.Prefetch(context.WithoutCancel(ctx))
	select {
	case <-l.ready:
		return l.albums
	case <-ctx.Done():
		return nil
	}
}

// Fresh fetches a new sequence.
func (l *Loader) Fresh(ctx context.Context) []Album {
	return l.fetch(ctx)
}

func (l *Loader) fetch(ctx context.Context) []Album {
	out, err := l.src.RandomAlbums(ctx, l.count)
	if err != nil {
		log.Error().Err(err).Msg("load albums")
		return nil
	}
	return out
}

// FixedDeck always serves the same sequence (daily challenge, tests).
type FixedDeck []Album

// Initial returns the sequence.
func (d FixedDeck) Initial(context.Context) []Album { return d }

// Fresh returns the same sequence.
func (d FixedDeck) Fresh(context.Context) []Album { return d }

// Loading is always false.
func (d FixedDeck) Loading() bool { return false }
