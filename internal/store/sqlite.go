package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/ai-tutor/internal/model"
)

const keyActive = "activeCourse"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sidebar (
		code     TEXT PRIMARY KEY,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		course     TEXT NOT NULL,
		seq        INTEGER NOT NULL,
		sender     TEXT NOT NULL,
		text       TEXT NOT NULL,
		expanded   INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_course_seq ON messages(course, seq);

	CREATE TABLE IF NOT EXISTS pending_deletes (
		code       TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) SetValue(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteValue(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) SaveState(ctx context.Context, st model.SessionState) error {
	saved := st.SavedAt
	if saved.IsZero() {
		saved = time.Now().UTC()
	}
	ts := saved.Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM sidebar`, `DELETE FROM messages`, `DELETE FROM pending_deletes`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clear state: %w", err)
		}
	}

	for i, code := range st.Sidebar {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO sidebar (code, position) VALUES (?, ?)`, code, i); err != nil {
			return fmt.Errorf("insert sidebar: %w", err)
		}
	}

	for course, msgs := range st.Transcripts {
		for i, m := range msgs {
			id := m.ID
			if id == "" {
				id = s.newID(saved)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO messages (id, course, seq, sender, text, expanded, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				id, course, i, string(m.Sender), m.Text, m.Expanded, ts)
			if err != nil {
				return fmt.Errorf("insert message: %w", err)
			}
		}
	}

	for _, code := range st.PendingDeletes {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO pending_deletes (code, created_at) VALUES (?, ?)`, code, ts); err != nil {
			return fmt.Errorf("insert pending delete: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		keyActive, st.Active, ts); err != nil {
		return fmt.Errorf("save active: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadState(ctx context.Context) (*model.SessionState, error) {
	st := &model.SessionState{Transcripts: map[string][]model.Message{}}

	var active, updated sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT value, updated_at FROM kv WHERE key = ?`, keyActive).Scan(&active, &updated)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	st.Active = active.String
	if updated.Valid {
		st.SavedAt, _ = time.Parse(time.RFC3339, updated.String)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT code FROM sidebar ORDER BY position`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return nil, err
		}
		st.Sidebar = append(st.Sidebar, code)
	}
	rows.Close()

	records, err := s.ExportAll(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		st.Transcripts[r.Course] = append(st.Transcripts[r.Course], r.Message())
	}

	rows, err = s.db.QueryContext(ctx, `SELECT code FROM pending_deletes ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		st.PendingDeletes = append(st.PendingDeletes, code)
	}

	return st, rows.Err()
}

func (s *SQLiteStore) Transcript(ctx context.Context, course string) ([]Record, error) {
	if course == "" {
		return nil, fmt.Errorf("course is required")
	}
	return s.ExportAll(ctx, course)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Message converts a record back to a transcript entry.
func (r Record) Message() model.Message {
	return model.Message{ID: r.ID, Text: r.Text, Sender: r.Sender, Expanded: r.Expanded}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var r Record
	var sender string
	err := row.Scan(&r.ID, &r.Course, &r.Seq, &sender, &r.Text, &r.Expanded, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.Sender = model.Sender(sender)
	return r, nil
}
