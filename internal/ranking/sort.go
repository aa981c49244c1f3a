package ranking

import (
	"sort"

	"github.com/sells-group/placement-cli/internal/model"
)

// less orders by tier, then distance, with unresolved distances last.
func less(a, b *model.Community) bool {
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	switch {
	case a.DistanceMiles == nil:
		return false
	case b.DistanceMiles == nil:
		return true
	default:
		return *a.DistanceMiles < *b.DistanceMiles
	}
}

// SortAndRank orders communities in place by (tier, distance, missing
// distance last) and assigns the 1-based rank within each tier. The sort
// is stable, so re-running it on its own output changes nothing.
func SortAndRank(communities []model.Community) {
	sort.SliceStable(communities, func(i, j int) bool {
		return less(&communities[i], &communities[j])
	})

	rank := map[model.Tier]int{}
	for i := range communities {
		c := &communities[i]
		rank[c.Tier]++
		c.RankInTier = rank[c.Tier]
	}
}
