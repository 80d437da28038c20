package store

import (
	"context"
	"fmt"
	"strings"
)

// Search finds saved messages whose text contains the query substring,
// ordered by course and position.
func (s *SQLiteStore) Search(ctx context.Context, p SearchParams) ([]Record, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"text LIKE ? ESCAPE '\\'"}
	args := []interface{}{"%" + escapeLike(p.Query) + "%"}

	if p.Course != "" {
		where = append(where, "course = ?")
		args = append(args, p.Course)
	}

	query := fmt.Sprintf(`
		SELECT id, course, seq, sender, text, expanded, created_at
		FROM messages
		WHERE %s
		ORDER BY course, seq
		LIMIT ?`, strings.Join(where, " AND "))
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
