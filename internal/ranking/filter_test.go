package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/internal/model"
)

func TestClassifyCareLevel(t *testing.T) {
	tests := []struct {
		in   string
		want CareClass
	}{
		{"Assisted Living", CareClassAssisted},
		{"Enhanced Assisted Living", CareClassAssisted},
		{"enhanced", CareClassAssisted},
		{"AL", CareClassAssisted},
		{"Memory Care", CareClassMemory},
		{"early DEMENTIA", CareClassMemory},
		{"Independent Living", CareClassIndependent},
		{"IL", CareClassIndependent},
		{"nursing home", CareClassNone},
		{"skilled nursing", CareClassIndependent}, // "il" in "skilled"
		{"", CareClassNone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCareLevel(tt.in))
		})
	}
}

func catalogRows() []model.Community {
	return []model.Community{
		{ID: "a", ServiceType: "Memory Care", MonthlyFee: fee(3000), Enhanced: "Yes", Enriched: "no"},
		{ID: "b", ServiceType: "Assisted Living", MonthlyFee: fee(5000), Enhanced: "yes", Enriched: "YES"},
		{ID: "c", ServiceType: "Assisted Living / Memory", MonthlyFee: nil, Enhanced: "No", Enriched: "Yes"},
		{ID: "d", ServiceType: "Independent Living", MonthlyFee: fee(4200), Enhanced: "", Enriched: ""},
		{ID: "e", ServiceType: "memory care unit", MonthlyFee: fee(2800), Enhanced: "YES", Enriched: "yes"},
	}
}

func TestFilter_BudgetScenario(t *testing.T) {
	out, report := Filter(catalogRows(), &model.Preferences{MaxBudget: fee(4500)})
	assert.Equal(t, []string{"a", "d", "e"}, ids(out))
	assert.Equal(t, 5, report.Input)
	assert.Equal(t, 3, report.Remaining())
}

func TestFilter_BudgetIsIdempotent(t *testing.T) {
	prefs := &model.Preferences{MaxBudget: fee(4500)}
	once, _ := Filter(catalogRows(), prefs)
	twice, _ := Filter(once, prefs)
	assert.Equal(t, ids(once), ids(twice))
}

func TestFilter_ZeroBudgetKeepsFreeOnly(t *testing.T) {
	rows := []model.Community{{ID: "free", MonthlyFee: fee(0)}, {ID: "paid", MonthlyFee: fee(10)}}
	out, _ := Filter(rows, &model.Preferences{MaxBudget: fee(0)})
	assert.Equal(t, []string{"free"}, ids(out))
}

func TestFilter_MemoryCare(t *testing.T) {
	out, _ := Filter(catalogRows(), &model.Preferences{CareLevel: "MEMORY care"})
	assert.Equal(t, []string{"a", "c", "e"}, ids(out))
}

func TestFilter_UnknownCareLevelPassesThrough(t *testing.T) {
	out, report := Filter(catalogRows(), &model.Preferences{CareLevel: "nursing home"})
	assert.Len(t, out, 5)
	assert.False(t, report.Steps[0].Applied)
}

func TestFilter_EnhancedAndEnriched(t *testing.T) {
	out, _ := Filter(catalogRows(), &model.Preferences{Enhanced: model.FlagYes})
	assert.Equal(t, []string{"a", "b", "e"}, ids(out))

	out, _ = Filter(catalogRows(), &model.Preferences{Enhanced: model.FlagYes, Enriched: model.FlagYes})
	assert.Equal(t, []string{"b", "e"}, ids(out))

	// "no" and unknown never filter.
	out, _ = Filter(catalogRows(), &model.Preferences{Enhanced: model.FlagNo, Enriched: model.FlagUnknown})
	assert.Len(t, out, 5)
}

func TestFilter_ReportOrder(t *testing.T) {
	prefs := &model.Preferences{CareLevel: "Assisted Living", Enriched: model.FlagYes, MaxBudget: fee(6000)}
	out, report := Filter(catalogRows(), prefs)

	require.Len(t, report.Steps, 4)
	assert.Equal(t, []string{StepCareLevel, StepEnhanced, StepEnriched, StepBudget},
		[]string{report.Steps[0].Name, report.Steps[1].Name, report.Steps[2].Name, report.Steps[3].Name})
	assert.Equal(t, []bool{true, false, true, true},
		[]bool{report.Steps[0].Applied, report.Steps[1].Applied, report.Steps[2].Applied, report.Steps[3].Applied})
	assert.Equal(t, []int{2, 2, 2, 1},
		[]int{report.Steps[0].Remaining, report.Steps[1].Remaining, report.Steps[2].Remaining, report.Steps[3].Remaining})
	assert.Equal(t, []string{"b"}, ids(out))
}

func TestFilter_EmptyResultIsValid(t *testing.T) {
	out, report := Filter(catalogRows(), &model.Preferences{MaxBudget: fee(100)})
	assert.Empty(t, out)
	assert.Equal(t, 0, report.Remaining())
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	rows := catalogRows()
	_, _ = Filter(rows, &model.Preferences{MaxBudget: fee(4500)})
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids(rows))
}
