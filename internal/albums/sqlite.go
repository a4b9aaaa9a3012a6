// internal/albums/sqlite.go
//
// Source backed by the local SQLite `albums` table.
// The table is created by the server's migrations and seeded from the
// catalog at startup (Seed is idempotent: INSERT OR IGNORE by id).

package albums

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const albumColumns = `id, album, artist, rating, year_released, small_text, review, reviewer, genre, label, reviewed, album_art_url`

// SQLiteSource reads albums from a *sql.DB.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource wraps db.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

// Seed inserts albums that are not yet present. Returns rows inserted.
func (s *SQLiteSource) Seed(ctx context.Context, list []Album) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO albums (`+albumColumns+`)
	                                     VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range list {
		res, err := stmt.ExecContext(ctx, string(a.ID), a.Title, a.Artist, a.Rating, a.Year, a.Hint,
			a.Review, a.Reviewer, a.Genre, a.Label, a.Reviewed, a.ArtURL)
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", a.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// RandomAlbums returns up to count rows in random order.
func (s *SQLiteSource) RandomAlbums(ctx context.Context, count int) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums ORDER BY RANDOM() LIMIT ?`, count)
	if err != nil {
		return nil, fmt.Errorf("query random albums: %w", err)
	}
	return scanAlbums(rows)
}

// AlbumsByID returns rows whose id is in ids.
func (s *SQLiteSource) AlbumsByID(ctx context.Context, ids []string) ([]Album, error) {
	if len(ids) == 0 {
		return []Album{}, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	return scanAlbums(rows)
}

// AlbumByID returns one row or ErrNotFound.
func (s *SQLiteSource) AlbumByID(ctx context.Context, id string) (Album, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+albumColumns+` FROM albums WHERE id=?`, id)
	if err != nil {
		return Album{}, fmt.Errorf("query album: %w", err)
	}
	out, err := scanAlbums(rows)
	if err != nil {
		return Album{}, err
	}
	if len(out) == 0 {
		return Album{}, ErrNotFound
	}
	return out[0], nil
}

func scanAlbums(rows *sql.Rows) ([]Album, error) {
	defer rows.Close()
	out := []Album{}
	for rows.Next() {
		var a Album
		var id string
		if err := rows.Scan(&id, &a.Title, &a.Artist, &a.Rating, &a.Year, &a.Hint,
			&a.Review, &a.Reviewer, &a.Genre, &a.Label, &a.Reviewed, &a.ArtURL); err != nil {
			return nil, err
		}
		a.ID = ID(id)
		out = append(out, a)
	}
	return out, rows.Err()
}
