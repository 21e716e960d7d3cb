package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id         TEXT PRIMARY KEY,
	switch     TEXT NOT NULL,
	previous   INTEGER NOT NULL,
	enabled    INTEGER NOT NULL,
	actor      TEXT NOT NULL,
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_records_at ON audit_records(at);
`

// SQLiteStore is a durable audit Store backed by SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if necessary creates) the audit database at path.
// WAL mode is enabled for concurrent admin reads during writes.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %q: %w", path, err)
	}

	// Single writer is plenty for an audit trail; avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_records (id, switch, previous, enabled, actor, at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Switch, boolToInt(rec.Previous), boolToInt(rec.Enabled), rec.Actor, rec.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT id, switch, previous, enabled, actor, at FROM audit_records ORDER BY at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var prev, enabled int
		var at int64
		if err := rows.Scan(&rec.ID, &rec.Switch, &prev, &enabled, &rec.Actor, &at); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.Previous = prev != 0
		rec.Enabled = enabled != 0
		rec.At = time.Unix(0, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM audit_records WHERE at < ?`, cutoff.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
