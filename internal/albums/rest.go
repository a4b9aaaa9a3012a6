// internal/albums/rest.go
//
// REST source backed by a hosted Postgres REST gateway (Supabase/PostgREST).
//
// Endpoints used:
//   GET {base}/rest/v1/{randomTable}?select=*&limit=N     → random album view
//   GET {base}/rest/v1/{reviewsTable}?select=*&id=in.(…)  → by id list
//   GET {base}/rest/v1/{reviewsTable}?select=*&id=eq.X    → single id
//
// Auth headers:
//   apikey: <key>
//   Authorization: Bearer <key>

package albums

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RESTSource queries the hosted album tables.
type RESTSource struct {
	BaseURL      string
	Key          string
	RandomTable  string // view that returns rows in random order
	ReviewsTable string
	Client       *http.Client
}

// NewRESTSource constructs a RESTSource with a bounded HTTP client.
func NewRESTSource(baseURL, key, randomTable, reviewsTable string) *RESTSource {
	return &RESTSource{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Key:          key,
		RandomTable:  randomTable,
		ReviewsTable: reviewsTable,
		Client:       &http.Client{Timeout: 8 * time.Second},
	}
}

// RandomAlbums fetches count rows from the random-order view.
func (s *RESTSource) RandomAlbums(ctx context.Context, count int) ([]Album, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("limit", strconv.Itoa(count))
	out, err := s.get(ctx, s.RandomTable, q)
	if err != nil {
		return nil, fmt.Errorf("get random albums: %w", err)
	}
	return out, nil
}

// AlbumsByID fetches the rows whose id is in ids.
func (s *RESTSource) AlbumsByID(ctx context.Context, ids []string) ([]Album, error) {
	if len(ids) == 0 {
		return []Album{}, nil
	}
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "in.("+strings.Join(ids, ",")+")")
	out, err := s.get(ctx, s.ReviewsTable, q)
	if err != nil {
		return nil, fmt.Errorf("get albums: %w", err)
	}
	return out, nil
}

// AlbumByID fetches a single row.
func (s *RESTSource) AlbumByID(ctx context.Context, id string) (Album, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	out, err := s.get(ctx, s.ReviewsTable, q)
	if err != nil {
		return Album{}, fmt.Errorf("get album by id: %w", err)
	}
	if len(out) == 0 {
		return Album{}, ErrNotFound
	}
	return out[0], nil
}

func (s *RESTSource) get(ctx context.Context, table string, q url.Values) ([]Album, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("albums url not configured")
	}
	u := s.BaseURL + "/rest/v1/" + url.PathEscape(table) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if s.Key != "" {
		req.Header.Set("apikey", s.Key)
		req.Header.Set("Authorization", "Bearer "+s.Key)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	var out []Album
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}
