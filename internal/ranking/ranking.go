// Package ranking filters, prioritizes, locates and orders catalog
// communities against a client's preferences.
package ranking

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/catalog"
	"github.com/sells-group/placement-cli/internal/model"
)

// Ranker runs the whole ranking stage.
type Ranker struct {
	Source catalog.Source
	Geo    *GeoRanker
	Now    func() time.Time
}

// NewRanker creates a Ranker.
func NewRanker(src catalog.Source, geo *GeoRanker) *Ranker {
	return &Ranker{Source: src, Geo: geo, Now: time.Now}
}

// Rank loads the catalog fresh and ranks it for prefs. A catalog load
// failure or cancellation is returned; zero matches is a valid result.
func (r *Ranker) Rank(ctx context.Context, prefs *model.Preferences) (*model.ResultSet, error) {
	if prefs == nil {
		return nil, eris.New("ranking: preferences are required")
	}
	cat, err := catalog.Load(ctx, r.Source)
	if err != nil {
		return nil, err
	}
	return r.RankCatalog(ctx, cat, prefs)
}

// RankCatalog ranks an already loaded catalog. cat is not modified.
func (r *Ranker) RankCatalog(ctx context.Context, cat *catalog.Catalog, prefs *model.Preferences) (*model.ResultSet, error) {
	log := zap.L().With(zap.String("stage", "rank"))

	filtered, report := Filter(cat.Communities, prefs)
	for _, step := range report.Steps {
		log.Debug("filter step",
			zap.String("criterion", step.Name),
			zap.Bool("applied", step.Applied),
			zap.Int("remaining", step.Remaining),
		)
	}

	AssignTiers(filtered)

	geo, err := r.Geo.Apply(ctx, prefs, filtered, cat.Schema.Has(catalog.FieldZip))
	if err != nil {
		return nil, err
	}

	SortAndRank(filtered)

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	rs := &model.ResultSet{
		CatalogSize: len(cat.Communities),
		Steps:       report.Steps,
		Geo:         geo,
		Communities: filtered,
		RankedAt:    now().UTC(),
	}

	log.Info("ranking complete",
		zap.Int("catalog", rs.CatalogSize),
		zap.Int("matches", rs.Len()),
		zap.Int("located", geo.Resolved),
		zap.Int("unresolved", geo.Unresolved),
		zap.Bool("default_reference", geo.UsedDefault),
	)
	return rs, nil
}
