package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/placement-cli/pkg/geocode"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
	ttl     time.Duration
	now     func() time.Time
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string, ttl time.Duration) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, ttl: ttl, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	latitude   DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	town       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	matched    BOOLEAN NOT NULL DEFAULT false,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Get implements geocode.Cache.
func (s *PostgresStore) Get(ctx context.Context, key string) (*geocode.Result, bool, error) {
	var r geocode.Result
	err := s.pool.QueryRow(ctx,
		`SELECT latitude, longitude, town, state, source, matched FROM geocode_cache
		 WHERE query_hash = $1 AND cached_at > $2`,
		key, cutoff(s.ttl, s.now()),
	).Scan(&r.Latitude, &r.Longitude, &r.Town, &r.State, &r.Source, &r.Matched)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get geocode")
	}
	return &r, true, nil
}

// Put implements geocode.Cache.
func (s *PostgresStore) Put(ctx context.Context, key string, r *geocode.Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO geocode_cache (query_hash, latitude, longitude, town, state, source, matched, cached_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (query_hash) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			town = EXCLUDED.town,
			state = EXCLUDED.state,
			source = EXCLUDED.source,
			matched = EXCLUDED.matched,
			cached_at = EXCLUDED.cached_at`,
		key, r.Latitude, r.Longitude, r.Town, r.State, r.Source, r.Matched, s.now(),
	)
	return eris.Wrap(err, "postgres: put geocode")
}

// Purge implements Store.
func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM geocode_cache WHERE cached_at <= $1`, cutoff(s.ttl, s.now()))
	if err != nil {
		return 0, eris.Wrap(err, "postgres: purge geocode")
	}
	return tag.RowsAffected(), nil
}
