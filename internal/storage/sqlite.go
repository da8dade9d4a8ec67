package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS endpoints (
	id          TEXT PRIMARY KEY,
	uri         TEXT NOT NULL,
	properties  TEXT NOT NULL DEFAULT '{}',
	ignore_case INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_endpoints_created ON endpoints(created_at, id);
`

// SQLiteStorage persists records in a SQLite database. Properties are stored as JSON,
// so numbers read back as float64.
type SQLiteStorage struct {
	db   *sql.DB
	opts options
}

// NewSQLiteStorage opens (creating if needed) the database at path. Use ":memory:" for a
// private in-memory database.
func NewSQLiteStorage(ctx context.Context, path string, opts ...Option) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db, opts: buildOptions(opts)}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                  Record
		props                string
		ignoreCase           int
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.URI, &props, &ignoreCase, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(props), &rec.Properties); err != nil {
		return Record{}, fmt.Errorf("decode properties of %s: %w", rec.ID, err)
	}
	if len(rec.Properties) == 0 {
		rec.Properties = nil
	}
	rec.IgnoreCase = ignoreCase != 0

	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Record{}, fmt.Errorf("decode created_at of %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Record{}, fmt.Errorf("decode updated_at of %s: %w", rec.ID, err)
	}
	return rec, nil
}

func (s *SQLiteStorage) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, uri, properties, ignore_case, created_at, updated_at FROM endpoints WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteStorage) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uri, properties, ignore_case, created_at, updated_at FROM endpoints`)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}

	// Timestamps are text, so order in Go rather than in SQL.
	sortRecords(out)
	return out, nil
}

func (s *SQLiteStorage) Create(ctx context.Context, rec Record) (Record, error) {
	if err := validate(rec); err != nil {
		return Record{}, err
	}
	props, err := encodeProperties(rec.Properties)
	if err != nil {
		return Record{}, err
	}

	now := s.opts.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO endpoints (id, uri, properties, ignore_case, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URI, props, boolToInt(rec.IgnoreCase), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	if err != nil {
		if isConstraintError(err) {
			return Record{}, fmt.Errorf("%w: %s", ErrConflict, rec.ID)
		}
		return Record{}, fmt.Errorf("create %s: %w", rec.ID, err)
	}
	return s.Get(ctx, rec.ID)
}

func (s *SQLiteStorage) Update(ctx context.Context, rec Record) (Record, error) {
	if err := validate(rec); err != nil {
		return Record{}, err
	}
	props, err := encodeProperties(rec.Properties)
	if err != nil {
		return Record{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE endpoints SET uri = ?, properties = ?, ignore_case = ?, updated_at = ? WHERE id = ?`,
		rec.URI, props, boolToInt(rec.IgnoreCase), s.opts.now().UTC().Format(time.RFC3339Nano), rec.ID)
	if err != nil {
		return Record{}, fmt.Errorf("update %s: %w", rec.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return s.Get(ctx, rec.ID)
}

func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM endpoints WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func encodeProperties(props map[string]any) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode properties: %w", err)
	}
	return string(data), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isConstraintError(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
