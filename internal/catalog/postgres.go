package catalog

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dashboard-engine/internal/period"
)

// Querier is the subset of pgxpool.Pool used by PostgresSource.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS dashboard_catalog (
	page       TEXT NOT NULL,
	periode    TEXT NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (page, periode)
)`

const (
	postgresSelect = `SELECT page, periode, payload FROM dashboard_catalog ORDER BY page, periode`
	postgresUpsert = `INSERT INTO dashboard_catalog (page, periode, payload, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (page, periode) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// PostgresSource reads catalog entries from the dashboard_catalog table.
type PostgresSource struct {
	q       Querier
	closeFn func()
}

// NewPostgres connects a pool to connString.
func NewPostgres(ctx context.Context, connString string) (*PostgresSource, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "catalog: postgres: ping")
	}
	return &PostgresSource{q: pool, closeFn: pool.Close}, nil
}

// NewPostgresWith wraps an existing pool.
func NewPostgresWith(q Querier) *PostgresSource {
	return &PostgresSource{q: q}
}

func (s *PostgresSource) Name() string { return "postgres" }

// Close releases the pool when the source owns it.
func (s *PostgresSource) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// Migrate creates the catalog table.
func (s *PostgresSource) Migrate(ctx context.Context) error {
	_, err := s.q.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "catalog: postgres: migrate")
}

func (s *PostgresSource) Entries(ctx context.Context) ([]RawEntry, error) {
	rows, err := s.q.Query(ctx, postgresSelect)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: postgres: query entries")
	}
	defer rows.Close()

	var out []RawEntry
	for rows.Next() {
		var page, key string
		var payload []byte
		if err := rows.Scan(&page, &key, &payload); err != nil {
			return nil, eris.Wrap(err, "catalog: postgres: scan entry")
		}
		out = append(out, RawEntry{Page: page, Key: period.Key(key), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: postgres: iterate entries")
	}
	return out, nil
}

// Seed upserts entries in one transaction and returns how many were written.
// On error nothing is written.
func (s *PostgresSource) Seed(ctx context.Context, entries []RawEntry) (int, error) {
	tx, err := s.q.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "catalog: postgres: begin seed")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, e := range entries {
		if _, err := tx.Exec(ctx, postgresUpsert, e.Page, string(e.Key), e.Payload, now); err != nil {
			return 0, eris.Wrapf(err, "catalog: postgres: upsert %s/%s", e.Page, e.Key)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "catalog: postgres: commit seed")
	}
	return len(entries), nil
}
