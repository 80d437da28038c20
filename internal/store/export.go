package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ExportAll returns all saved messages, optionally filtered by course.
func (s *SQLiteStore) ExportAll(ctx context.Context, course string) ([]Record, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if course != "" {
		where = append(where, "course = ?")
		args = append(args, course)
	}

	query := `SELECT id, course, seq, sender, text, expanded, created_at
	          FROM messages WHERE ` + strings.Join(where, " AND ") + ` ORDER BY course, seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Import appends exported messages to the end of each course's saved
// transcript. Records whose id already exists are skipped.
func (s *SQLiteStore) Import(ctx context.Context, records []Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	next := map[string]int{}
	imported := 0
	for _, r := range records {
		if r.Course == "" {
			return imported, fmt.Errorf("record %q has no course", r.ID)
		}
		seq, ok := next[r.Course]
		if !ok {
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE course = ?`, r.Course).Scan(&seq); err != nil {
				return imported, err
			}
		}

		id := r.ID
		if id == "" {
			id = s.newID(time.Now())
		}
		created := r.CreatedAt
		if created == "" {
			created = time.Now().UTC().Format(time.RFC3339)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO messages (id, course, seq, sender, text, expanded, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, r.Course, seq, string(r.Sender), r.Text, r.Expanded, created)
		if err != nil {
			return imported, fmt.Errorf("import message: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			next[r.Course] = seq
			continue
		}
		next[r.Course] = seq + 1
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return imported, nil
}
