package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/pkg/geocode"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "memory"})
	require.NoError(t, err)
	require.NotNil(t, s)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "k", &geocode.Result{Matched: true}))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, s.Close())
}

func TestOpen_None(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), Options{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "c.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	assert.IsType(t, &SQLiteStore{}, s)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown cache driver")
}
