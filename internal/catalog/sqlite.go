package catalog

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dashboard-engine/internal/period"
)

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dashboard_catalog (
	page       TEXT NOT NULL,
	periode    TEXT NOT NULL,
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (page, periode)
)`

// SQLiteSource reads catalog entries from a local SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLite opens the database at dsn in WAL mode.
func NewSQLite(dsn string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "catalog: sqlite: exec %s", pragma)
		}
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

// Close closes the database.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Migrate creates the catalog table.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "catalog: sqlite: migrate")
}

func (s *SQLiteSource) Entries(ctx context.Context) ([]RawEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT page, periode, payload FROM dashboard_catalog ORDER BY page, periode`)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: sqlite: query entries")
	}
	defer rows.Close() //nolint:errcheck

	var out []RawEntry
	for rows.Next() {
		var page, key, payload string
		if err := rows.Scan(&page, &key, &payload); err != nil {
			return nil, eris.Wrap(err, "catalog: sqlite: scan entry")
		}
		out = append(out, RawEntry{Page: page, Key: period.Key(key), Payload: []byte(payload)})
	}
	return out, eris.Wrap(rows.Err(), "catalog: sqlite: iterate entries")
}

// Seed upserts entries in one transaction and returns how many were written.
func (s *SQLiteSource) Seed(ctx context.Context, entries []RawEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "catalog: sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dashboard_catalog (page, periode, payload, updated_at)
VALUES (?, ?, ?, datetime('now'))
ON CONFLICT (page, periode) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "catalog: sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Page, string(e.Key), string(e.Payload)); err != nil {
			return 0, eris.Wrapf(err, "catalog: sqlite: upsert %s/%s", e.Page, e.Key)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "catalog: sqlite: commit")
	}
	return len(entries), nil
}
