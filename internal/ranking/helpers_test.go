package ranking

import (
	"context"
	"errors"
	"sync"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/geocode"
)

// fakeGeocoder answers from a fixed table; unknown queries are no-match
// and queries listed in errs fail.
type fakeGeocoder struct {
	mu      sync.Mutex
	results map[string]geocode.Result
	errs    map[string]bool
	queries []string
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{results: map[string]geocode.Result{}, errs: map[string]bool{}}
}

func (f *fakeGeocoder) at(query string, lat, lon float64) *fakeGeocoder {
	f.results[query] = geocode.Result{Latitude: lat, Longitude: lon, Matched: true, Source: "fake"}
	return f
}

func (f *fakeGeocoder) Geocode(_ context.Context, query string) (*geocode.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.errs[query] {
		return nil, errors.New("geocoder unavailable")
	}
	r, ok := f.results[query]
	if !ok {
		return &geocode.Result{Matched: false}, nil
	}
	return &r, nil
}

func fee(f float64) *float64 { return &f }

func miles(f float64) *float64 { return &f }

func ids(cs []model.Community) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
