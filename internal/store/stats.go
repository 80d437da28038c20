package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string        `json:"db_path" yaml:"db_path"`
	DBSizeBytes    int64         `json:"db_size_bytes" yaml:"db_size_bytes"`
	SignedIn       bool          `json:"signed_in" yaml:"signed_in"`
	SidebarCourses int           `json:"sidebar_courses" yaml:"sidebar_courses"`
	TotalMessages  int           `json:"total_messages" yaml:"total_messages"`
	PendingDeletes int           `json:"pending_deletes" yaml:"pending_deletes"`
	Courses        []CourseStats `json:"courses" yaml:"courses"`
}

// CourseStats holds per-course counts.
type CourseStats struct {
	Course   string `json:"course" yaml:"course"`
	Messages int    `json:"messages" yaml:"messages"`
	Pinned   bool   `json:"pinned" yaml:"pinned"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	var tokens int
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key = ? AND value != ''`, KeyAuthToken).Scan(&tokens)
	st.SignedIn = tokens > 0
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sidebar`).Scan(&st.SidebarCourses)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&st.TotalMessages)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_deletes`).Scan(&st.PendingDeletes)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.course, COUNT(*) AS cnt, s.code IS NOT NULL AS pinned
		FROM messages m LEFT JOIN sidebar s ON s.code = m.course
		GROUP BY m.course ORDER BY cnt DESC, m.course`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs CourseStats
		rows.Scan(&cs.Course, &cs.Messages, &cs.Pinned)
		st.Courses = append(st.Courses, cs)
	}

	return st, nil
}
