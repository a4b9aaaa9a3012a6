// internal/albums/album.go
//
// Album record and the Source contract.
// Field tags follow the backend's column names so REST rows, SQLite rows
// and catalog entries all decode into the same shape.

package albums

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrNotFound is returned by by-ID lookups with no match.
var ErrNotFound = errors.New("albums: not found")

// ID is an album identifier. Backends disagree on numeric vs text keys,
// so both decode into a string.
type ID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Album is a single reviewed record. Immutable once loaded.
type Album struct {
	ID       ID      `json:"id,omitempty" yaml:"id"`
	Title    string  `json:"album" yaml:"album"`
	Artist   string  `json:"artist" yaml:"artist"`
	Rating   float64 `json:"rating" yaml:"rating"` // critic score, 0–10, one decimal
	Year     int     `json:"year_released" yaml:"year_released"`
	Hint     string  `json:"small_text" yaml:"small_text"`
	Review   string  `json:"review,omitempty" yaml:"review"`
	Reviewer string  `json:"reviewer,omitempty" yaml:"reviewer"`
	Genre    string  `json:"genre,omitempty" yaml:"genre"`
	Label    string  `json:"label,omitempty" yaml:"label"`
	Reviewed string  `json:"reviewed,omitempty" yaml:"reviewed"`
	ArtURL   string  `json:"album_art_url" yaml:"album_art_url"`
}

// Validate checks the fields the game depends on.
func (a Album) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("album title is empty")
	}
	if strings.TrimSpace(a.Artist) == "" {
		return errors.New("album artist is empty")
	}
	if a.Rating < 0 || a.Rating > 10 {
		return errors.New("album rating out of range: " + strconv.FormatFloat(a.Rating, 'f', 1, 64))
	}
	return nil
}

// Source supplies album records.
// Implementations return an error on transport or status failure.
type Source interface {
	// RandomAlbums returns up to count albums in random order.
	RandomAlbums(ctx context.Context, count int) ([]Album, error)
	// AlbumsByID returns the albums matching ids (order not guaranteed).
	AlbumsByID(ctx context.Context, ids []string) ([]Album, error)
	// AlbumByID returns one album or ErrNotFound.
	AlbumByID(ctx context.Context, id string) (Album, error)
}
