package ranking

import (
	"strings"

	"github.com/sells-group/placement-cli/internal/model"
)

// Classify assigns the priority tier from the contract-status and
// placement-partner text, compared case-insensitively:
//
//	contract not in {"no", "nan", ""}        → 1
//	contract == "no" and placement == "yes" → 2
//	otherwise                               → 3
func Classify(contract, placement string) model.Tier {
	c := strings.ToLower(strings.TrimSpace(contract))
	p := strings.ToLower(strings.TrimSpace(placement))
	switch {
	case c != "no" && c != "nan" && c != "":
		return model.TierContracted
	case c == "no" && p == "yes":
		return model.TierPartner
	default:
		return model.TierOther
	}
}

// AssignTiers sets Tier on every community in place.
func AssignTiers(communities []model.Community) {
	for i := range communities {
		c := &communities[i]
		c.Tier = Classify(c.ContractStatus, c.PlacementPartner)
	}
}
