// internal/daily/daily.go
//
// Daily challenge album selection.
// Every player gets the same albums on the same UTC date: indices into the
// bundled catalog are derived from HMAC-SHA256(salt, "YYYY-MM-DD#k").
// The salt keeps the sequence unguessable from the date alone.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ParseDateKey validates a YYYY-MM-DD key.
func ParseDateKey(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// AlbumIndices returns n distinct indices in [0, catalogLen) for date.
// n is capped at catalogLen.
func AlbumIndices(date time.Time, salt string, catalogLen, n int) []int {
	if catalogLen <= 0 || n <= 0 {
		return nil
	}
	if n > catalogLen {
		n = catalogLen
	}
	dk := DateKey(date)
	seen := make(map[int]bool, n)
	out := make([]int, 0, n)
	for k := 0; len(out) < n; k++ {
		idx := index(salt, dk+"#"+strconv.Itoa(k), catalogLen)
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

func index(salt, msg string, mod int) int {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for the modulus
	return int(binary.BigEndian.Uint64(sum[:8]) % uint64(mod))
}
