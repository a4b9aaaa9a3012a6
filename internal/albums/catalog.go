// internal/albums/catalog.go
//
// Static album catalog.
//
// Responsibilities:
//   - Load the bundled album list from a file (ALBUMS_FILE) or fall back to
//     the copy embedded in the assets package.
//   - Validate entries (title, artist, rating range) and assign IDs to
//     entries that lack one.
//   - Serve as a Source so it can stand in for the hosted backend.
//
// File format (YAML; JSON is accepted since YAML is a superset):
//
//   albums:
//     - album: Kid A
//       artist: Radiohead
//       rating: 10.0
//       ...
//
// Initialization is run once via Init (sync.Once); tests build catalogs
// directly with ParseCatalog.

package albums

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/pitchdork/apps/go-server/assets"
)

// MinCatalogSize is the smallest catalog that can fill a full game.
const MinCatalogSize = 5

// Catalog is an immutable list of albums with an ID index.
type Catalog struct {
	albums []Album
	byID   map[ID]int
}

type catalogFile struct {
	Albums []Album `yaml:"albums"`
}

// ParseCatalog decodes and validates catalog bytes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Albums) < MinCatalogSize {
		return nil, fmt.Errorf("catalog has %d albums, need at least %d", len(f.Albums), MinCatalogSize)
	}
	c := &Catalog{albums: make([]Album, 0, len(f.Albums)), byID: make(map[ID]int, len(f.Albums))}
	for i, a := range f.Albums {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if a.ID == "" {
			a.ID = ID(fmt.Sprintf("local-%03d", i+1))
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q", i, a.ID)
		}
		c.byID[a.ID] = len(c.albums)
		c.albums = append(c.albums, a)
	}
	return c, nil
}

// LoadCatalog reads path, or the embedded catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(assets.AlbumsYAML())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

var (
	initOnce   sync.Once
	defaultCat *Catalog
	initialErr error
)

// Init loads the process-wide catalog exactly once.
func Init(path string) error {
	initOnce.Do(func() {
		defaultCat, initialErr = LoadCatalog(path)
	})
	return initialErr
}

// Default returns the catalog loaded by Init, or nil before a successful Init.
func Default() *Catalog {
	return defaultCat
}

// Len is the number of albums.
func (c *Catalog) Len() int { return len(c.albums) }

// At returns the album at index i.
func (c *Catalog) At(i int) Album { return c.albums[i] }

// Albums returns a copy of the full list in file order.
func (c *Catalog) Albums() []Album {
	return append([]Album(nil), c.albums...)
}

// RandomAlbums returns up to count albums in a crypto-random order.
func (c *Catalog) RandomAlbums(_ context.Context, count int) ([]Album, error) {
	if len(c.albums) == 0 {
		return nil, errors.New("catalog is empty")
	}
	shuffled := c.Albums()
	for i := len(shuffled) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, err
		}
		j := int(jBig.Int64())
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}
	return shuffled, nil
}

// AlbumsByID returns the catalog entries for ids, skipping unknown ones.
func (c *Catalog) AlbumsByID(_ context.Context, ids []string) ([]Album, error) {
	out := make([]Album, 0, len(ids))
	for _, id := range ids {
		if i, ok := c.byID[ID(id)]; ok {
			out = append(out, c.albums[i])
		}
	}
	return out, nil
}

// AlbumByID returns one entry or ErrNotFound.
func (c *Catalog) AlbumByID(_ context.Context, id string) (Album, error) {
	i, ok := c.byID[ID(id)]
	if !ok {
		return Album{}, ErrNotFound
	}
	return c.albums[i], nil
}
