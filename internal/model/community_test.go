package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierValid(t *testing.T) {
	t.Parallel()

	for _, tier := range Tiers {
		assert.True(t, tier.Valid())
	}
	assert.False(t, Tier(0).Valid())
	assert.False(t, Tier(4).Valid())
}

func TestTierLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Contracted", TierContracted.Label())
	assert.Equal(t, "Partners", TierPartner.Label())
	assert.Equal(t, "Other", TierOther.Label())
	assert.Equal(t, "Tier 9", Tier(9).Label())
}

func TestResultSetByTier(t *testing.T) {
	t.Parallel()

	rs := &ResultSet{Communities: []Community{
		{ID: "a", Tier: TierContracted},
		{ID: "b", Tier: TierOther},
		{ID: "c", Tier: TierContracted},
	}}

	got := rs.ByTier(TierContracted)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Empty(t, rs.ByTier(TierPartner))
	assert.Equal(t, 3, rs.Len())

	var nilSet *ResultSet
	assert.Equal(t, 0, nilSet.Len())
	assert.Nil(t, nilSet.ByTier(TierOther))
}
