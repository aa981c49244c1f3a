package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/pkg/geocode"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T, ttl time.Duration) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock, ttl: ttl, now: time.Now}
	return s, mock
}

func TestPostgresStore_Get_Hit(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectQuery(`SELECT latitude, longitude, town, state, source, matched FROM geocode_cache`).
		WithArgs("k1", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"latitude", "longitude", "town", "state", "source", "matched"}).
			AddRow(43.12, -77.57, "Brighton", "NY", "nominatim", true))

	got, ok, err := s.Get(context.Background(), "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Matched)
	assert.Equal(t, "Brighton", got.Town)
	assert.InDelta(t, 43.12, got.Latitude, 0.0001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectQuery(`SELECT latitude, longitude, town, state, source, matched FROM geocode_cache`).
		WithArgs("missing", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	got, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectQuery(`SELECT latitude`).
		WithArgs("k", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	_, _, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get geocode")
}

func TestPostgresStore_Put(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("k1", 43.12, -77.57, "Brighton", "NY", "nominatim", true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Put(context.Background(), "k1", &geocode.Result{
		Latitude: 43.12, Longitude: -77.57, Town: "Brighton", State: "NY", Source: "nominatim", Matched: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Purge(t *testing.T) {
	s, mock := newMockPostgresStore(t, 24*time.Hour)

	mock.ExpectExec(`DELETE FROM geocode_cache WHERE cached_at <= \$1`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PurgeWithoutTTL(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	n, err := s.Purge(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t, 0)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
