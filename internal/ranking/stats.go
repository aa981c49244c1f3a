package ranking

import (
	"github.com/sells-group/placement-cli/internal/model"
)

// TierStats summarizes one tier of a result set.
type TierStats struct {
	Tier        model.Tier `json:"tier"`
	Label       string     `json:"label"`
	Count       int        `json:"count"`
	Located     int        `json:"located"`
	AvgDistance *float64   `json:"avg_distance_miles"`
	AvgFee      *float64   `json:"avg_monthly_fee"`
	ClosestID   string     `json:"closest_community_id,omitempty"`
	ClosestTown string     `json:"closest_town,omitempty"`
	ClosestMi   *float64   `json:"closest_distance_miles,omitempty"`
}

// Summary is the overview shown above the results.
type Summary struct {
	Total      int         `json:"total"`
	Unresolved int         `json:"unresolved"`
	AvgFee     *float64    `json:"avg_monthly_fee"`
	Tiers      []TierStats `json:"tiers"`
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) { m.sum += v; m.n++ }

func (m mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

// Summarize computes overall and per-tier statistics. Every tier appears
// in the output, including empty ones. Averages skip missing values.
func Summarize(rs *model.ResultSet) Summary {
	var s Summary
	var fees mean
	tiers := make(map[model.Tier]*TierStats, len(model.Tiers))
	dist := make(map[model.Tier]*mean, len(model.Tiers))
	tierFees := make(map[model.Tier]*mean, len(model.Tiers))
	for _, t := range model.Tiers {
		tiers[t] = &TierStats{Tier: t, Label: t.Label()}
		dist[t] = &mean{}
		tierFees[t] = &mean{}
	}

	if rs != nil {
		for i := range rs.Communities {
			c := &rs.Communities[i]
			s.Total++
			ts, ok := tiers[c.Tier]
			if !ok {
				continue
			}
			ts.Count++
			if c.MonthlyFee != nil {
				fees.add(*c.MonthlyFee)
				tierFees[c.Tier].add(*c.MonthlyFee)
			}
			if c.DistanceMiles == nil {
				s.Unresolved++
				continue
			}
			ts.Located++
			dist[c.Tier].add(*c.DistanceMiles)
			if ts.ClosestMi == nil || *c.DistanceMiles < *ts.ClosestMi {
				d := *c.DistanceMiles
				ts.ClosestMi = &d
				ts.ClosestID = c.ID
				ts.ClosestTown = c.Town
			}
		}
	}

	s.AvgFee = fees.value()
	for _, t := range model.Tiers {
		ts := tiers[t]
		ts.AvgDistance = dist[t].value()
		ts.AvgFee = tierFees[t].value()
		s.Tiers = append(s.Tiers, *ts)
	}
	return s
}
