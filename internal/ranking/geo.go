package ranking

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/geocode"
)

// DefaultReference is the home-region coordinate (Rochester, NY) used when
// no preferred location resolves.
var DefaultReference = model.Coordinate{Lat: 43.1566, Lon: -77.6088}

// Lookup is the outcome of resolving one location: a coordinate or the
// reason there is none.
type Lookup struct {
	Coord   *model.Coordinate
	Failure model.LookupFailure
	Town    string
	State   string
	Err     error
}

// Resolved reports whether the lookup produced a coordinate.
func (l Lookup) Resolved() bool { return l.Coord != nil }

func failed(kind model.LookupFailure, err error) Lookup {
	return Lookup{Failure: kind, Err: err}
}

// GeoRanker resolves preferred and community locations and computes each
// community's distance to the nearest preferred location. Lookups are
// issued one at a time; the client's limiter spaces them.
type GeoRanker struct {
	Client  geocode.Client
	Default model.Coordinate
	// Region is appended to postal codes, e.g. "14618, NY".
	Region string
}

// NewGeoRanker returns a GeoRanker with DefaultReference and region "NY"
// for zero values.
func NewGeoRanker(client geocode.Client, def *model.Coordinate, region string) *GeoRanker {
	g := &GeoRanker{Client: client, Default: DefaultReference, Region: region}
	if def != nil {
		g.Default = *def
	}
	if g.Region == "" {
		g.Region = "NY"
	}
	return g
}

// Geocode resolves query into a Lookup. It never returns an error; a
// failed lookup is described by the Failure field.
func (g *GeoRanker) Geocode(ctx context.Context, query string) Lookup {
	res, err := g.Client.Geocode(ctx, query)
	if err != nil {
		return failed(model.LookupError, err)
	}
	if res == nil || !res.Matched {
		return failed(model.LookupNoResult, nil)
	}
	return Lookup{
		Coord: &model.Coordinate{Lat: res.Latitude, Lon: res.Longitude},
		Town:  res.Town,
		State: res.State,
	}
}

// References geocodes every preferred location, skipping failures. When
// none resolves the default coordinate is returned and usedDefault is true.
func (g *GeoRanker) References(ctx context.Context, locations []string) (refs []model.Coordinate, resolved int, usedDefault bool, err error) {
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, eris.Wrap(err, "geo: resolve preferred locations")
		}
		l := g.Geocode(ctx, loc)
		if err := ctx.Err(); err != nil {
			return nil, 0, false, eris.Wrap(err, "geo: resolve preferred locations")
		}
		if !l.Resolved() {
			zap.L().Debug("geo: preferred location unresolved",
				zap.String("location", loc),
				zap.String("failure", string(l.Failure)),
				zap.Error(l.Err),
			)
			continue
		}
		refs = append(refs, *l.Coord)
	}
	resolved = len(refs)
	if resolved == 0 {
		return []model.Coordinate{g.Default}, 0, true, nil
	}
	return refs, resolved, false, nil
}

// PostalQuery formats a postal-code cell as a zero-padded five-digit
// code plus region ("14450" → "14450, NY"). Numeric spreadsheet values
// such as "14618.0" and ZIP+4 codes are accepted.
func PostalQuery(raw, region string) (string, model.LookupFailure) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return "", model.LookupMissingCode
	}
	if base, _, ok := strings.Cut(s, "-"); ok && len(base) == 5 {
		s = base
	}
	// Spreadsheet exports render numeric cells as "14618.0".
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	if s == "" || len(s) > 5 || strings.Trim(s, "0123456789") != "" {
		return "", model.LookupMalformedCode
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return "", model.LookupMalformedCode
	}
	return fmt.Sprintf("%05d, %s", v, region), model.LookupResolved
}

// Locate resolves one community's coordinate from its postal code.
func (g *GeoRanker) Locate(ctx context.Context, c *model.Community) Lookup {
	query, failure := PostalQuery(c.ZipCode, g.Region)
	if failure != model.LookupResolved {
		return failed(failure, nil)
	}
	return g.Geocode(ctx, query)
}

// NearestMiles returns the minimum great-circle distance from c to refs.
func NearestMiles(c model.Coordinate, refs []model.Coordinate) *float64 {
	if len(refs) == 0 {
		return nil
	}
	best := math.Inf(1)
	for _, r := range refs {
		if d := geocode.DistanceMiles(c.Lat, c.Lon, r.Lat, r.Lon); d < best {
			best = d
		}
	}
	return &best
}

// Apply resolves references, then locates every community and sets its
// Coords, LocationFailure and DistanceMiles. Empty Town and State cells
// are filled from the postal-code result. Lookup failures degrade to
// unresolved; only context cancellation returns an error.
func (g *GeoRanker) Apply(ctx context.Context, prefs *model.Preferences, communities []model.Community, hasZipColumn bool) (model.GeoSummary, error) {
	var locations []string
	if prefs != nil {
		locations = prefs.PreferredLocations
	}

	summary := model.GeoSummary{
		PreferredQueried: len(locations),
		Failures:         map[model.LookupFailure]int{},
	}

	refs, resolved, usedDefault, err := g.References(ctx, locations)
	if err != nil {
		return summary, err
	}
	summary.References = refs
	summary.PreferredResolved = resolved
	summary.UsedDefault = usedDefault

	for i := range communities {
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "geo: locate communities")
		}
		c := &communities[i]

		var l Lookup
		if hasZipColumn {
			l = g.Locate(ctx, c)
		} else {
			l = failed(model.LookupNoZipColumn, nil)
		}
		if err := ctx.Err(); err != nil {
			return summary, eris.Wrap(err, "geo: locate communities")
		}

		c.Coords = l.Coord
		c.LocationFailure = l.Failure
		c.DistanceMiles = nil
		if !l.Resolved() {
			summary.Unresolved++
			summary.Failures[l.Failure]++
			if l.Err != nil {
				zap.L().Debug("geo: community unresolved",
					zap.String("community", c.ID),
					zap.String("zip", c.ZipCode),
					zap.Error(l.Err),
				)
			}
			continue
		}

		summary.Resolved++
		c.DistanceMiles = NearestMiles(*l.Coord, refs)
		if c.Town == "" {
			c.Town = l.Town
		}
		if c.State == "" {
			c.State = l.State
		}
	}
	return summary, nil
}
