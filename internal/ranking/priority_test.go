package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/placement-cli/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		contract, placement string
		want                model.Tier
	}{
		{"Yes Rate A", "no", model.TierContracted},
		{"Yes", "", model.TierContracted},
		{"$4,500 contracted", "yes", model.TierContracted},
		{"no", "yes", model.TierPartner},
		{"No", "YES", model.TierPartner},
		{"no", "no", model.TierOther},
		{"", "no", model.TierOther},
		{"", "yes", model.TierOther},
		{"nan", "yes", model.TierOther},
		{"NaN", "", model.TierOther},
		{"no", "yes please", model.TierOther},
	}
	for _, tt := range tests {
		t.Run(tt.contract+"/"+tt.placement, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contract, tt.placement))
		})
	}
}

func TestAssignTiers(t *testing.T) {
	cs := []model.Community{
		{ContractStatus: "Yes"},
		{ContractStatus: "no", PlacementPartner: "yes"},
		{},
	}
	AssignTiers(cs)
	assert.Equal(t, []model.Tier{1, 2, 3}, []model.Tier{cs[0].Tier, cs[1].Tier, cs[2].Tier})
	for _, c := range cs {
		assert.True(t, c.Tier.Valid())
	}
}
