package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/ranking"
)

// DefaultTopN is how many communities per tier are presented.
const DefaultTopN = 5

// Entry is one presented community.
type Entry struct {
	Community        model.Community `json:"community"`
	Explanation      string          `json:"explanation,omitempty"`
	ExplanationError string          `json:"explanation_error,omitempty"`
}

// TierGroup is the presented head of one tier.
type TierGroup struct {
	Tier    model.Tier `json:"tier"`
	Label   string     `json:"label"`
	Total   int        `json:"total"`
	Entries []Entry    `json:"entries"`
}

// Presentation is the results-page view of a ranked set.
type Presentation struct {
	Matches int             `json:"matches"`
	Groups  []TierGroup     `json:"groups"`
	Stats   ranking.Summary `json:"stats"`
}

// Present builds the top topN communities of each non-empty tier.
// Explanations are best-effort: a failure is recorded on the entry.
func Present(ctx context.Context, ex explain.Explainer, prefs *model.Preferences, rs *model.ResultSet, topN int) *Presentation {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if ex == nil {
		ex = explain.Noop{}
	}

	p := &Presentation{Matches: rs.Len(), Stats: ranking.Summarize(rs)}
	for _, tier := range model.Tiers {
		members := rs.ByTier(tier)
		if len(members) == 0 {
			continue
		}
		g := TierGroup{Tier: tier, Label: tier.Label(), Total: len(members)}
		for i := 0; i < len(members) && i < topN; i++ {
			e := Entry{Community: members[i]}
			text, err := ex.Explain(ctx, prefs, &members[i])
			if err != nil {
				zap.L().Warn("workflow: explanation failed",
					zap.String("community_id", members[i].ID),
					zap.Error(err),
				)
				e.ExplanationError = err.Error()
			} else {
				e.Explanation = text
			}
			g.Entries = append(g.Entries, e)
		}
		p.Groups = append(p.Groups, g)
	}
	return p
}
