// internal/daily/store.go
//
// Daily challenge results in SQLite (daily_results, UNIQUE(user_id, date)).
// One result per player per date; later inserts for the same pair are ignored.

package daily

import (
	"context"
	"database/sql"
)

// Result is one finished daily game.
type Result struct {
	UserID     string `json:"userId"`
	Date       string `json:"date"`
	Score      int    `json:"score"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
}

// LBRow is one leaderboard line.
type LBRow struct {
	UserID     string `json:"userId"`
	Username   string `json:"username,omitempty"`
	Score      int    `json:"score"`
	Percentage int    `json:"percentage"`
	Grade      string `json:"grade"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?`,
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records r. It reports false when the player already had a result for the date.
func (s *Store) InsertResult(ctx context.Context, r Result) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, score, percentage, grade)
		 VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.Score, r.Percentage, r.Grade,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Leaderboard returns the best scores for date; ties go to whoever finished first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.user_id, COALESCE(u.username, ''), d.score, d.percentage, d.grade
		 FROM daily_results d
		 LEFT JOIN users u ON u.id = d.user_id
		 WHERE d.date=?
		 ORDER BY d.score DESC, d.created_at ASC, d.id ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Score, &r.Percentage, &r.Grade); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
