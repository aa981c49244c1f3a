// Package store persists geocode lookups so repeated ranking runs skip the
// throttled provider.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placement-cli/pkg/geocode"
)

// Store is a durable geocode.Cache.
type Store interface {
	geocode.Cache

	// Purge removes entries older than the configured TTL.
	Purge(ctx context.Context) (int64, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Options configures Open.
type Options struct {
	Driver string // memory, sqlite, postgres, none
	DSN    string
	TTL    time.Duration // zero keeps entries forever
}

// Open returns the Store for opts.Driver, migrated and ready. Driver
// "none" returns a nil Store and nil error.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Driver) {
	case "", "memory":
		return NewMemory(), nil
	case "none":
		return nil, nil
	case "sqlite":
		s, err := NewSQLite(opts.DSN, opts.TTL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, opts.DSN, opts.TTL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("store: unknown cache driver %q", opts.Driver)
	}
}

// MemoryStore adapts geocode.MemoryCache to Store.
type MemoryStore struct {
	*geocode.MemoryCache
}

// NewMemory creates an empty in-process store.
func NewMemory() *MemoryStore {
	return &MemoryStore{MemoryCache: geocode.NewMemoryCache()}
}

// Purge implements Store. Memory entries live for the process lifetime.
func (m *MemoryStore) Purge(context.Context) (int64, error) { return 0, nil }

// Migrate implements Store.
func (m *MemoryStore) Migrate(context.Context) error { return nil }

// Close implements Store.
func (m *MemoryStore) Close() error { return nil }

func cutoff(ttl time.Duration, now time.Time) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(-ttl)
}
