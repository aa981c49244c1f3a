package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/placement-cli/pkg/geocode"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	latitude   REAL NOT NULL DEFAULT 0,
	longitude  REAL NOT NULL DEFAULT 0,
	town       TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	matched    INTEGER NOT NULL DEFAULT 0,
	cached_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_geocode_cache_cached_at ON geocode_cache(cached_at);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements geocode.Cache.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*geocode.Result, bool, error) {
	var r geocode.Result
	var matched int
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, town, state, source, matched FROM geocode_cache
		 WHERE query_hash = ? AND cached_at > ?`,
		key, cutoff(s.ttl, s.now()).Unix(),
	).Scan(&r.Latitude, &r.Longitude, &r.Town, &r.State, &r.Source, &matched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "sqlite: get geocode")
	}
	r.Matched = matched == 1
	return &r, true, nil
}

// Put implements geocode.Cache.
func (s *SQLiteStore) Put(ctx context.Context, key string, r *geocode.Result) error {
	matched := 0
	if r.Matched {
		matched = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query_hash, latitude, longitude, town, state, source, matched, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(query_hash) DO UPDATE SET
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			town = excluded.town,
			state = excluded.state,
			source = excluded.source,
			matched = excluded.matched,
			cached_at = excluded.cached_at`,
		key, r.Latitude, r.Longitude, r.Town, r.State, r.Source, matched, s.now().Unix(),
	)
	return eris.Wrap(err, "sqlite: put geocode")
}

// Purge implements Store.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM geocode_cache WHERE cached_at <= ?`, cutoff(s.ttl, s.now()).Unix())
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge geocode")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: purge rows affected")
}
