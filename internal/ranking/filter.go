package ranking

import (
	"strings"

	"github.com/sells-group/placement-cli/internal/model"
)

// CareClass is the service-type bucket a care-level preference selects.
type CareClass string

const (
	CareClassNone        CareClass = ""
	CareClassAssisted    CareClass = "Assisted"
	CareClassMemory      CareClass = "Memory"
	CareClassIndependent CareClass = "Independent"
)

// careKeywords is checked in order; the first class with a matching
// keyword wins, so "enhanced" maps to Assisted.
var careKeywords = []struct {
	class    CareClass
	keywords []string
}{
	{CareClassAssisted, []string{"assisted", "al", "enhanced"}},
	{CareClassMemory, []string{"memory", "dementia"}},
	{CareClassIndependent, []string{"independent", "il"}},
}

// ClassifyCareLevel maps free care-level text onto a service-type bucket
// by case-insensitive substring match. Text matching no keyword yields
// CareClassNone, which disables the care filter.
func ClassifyCareLevel(careLevel string) CareClass {
	text := strings.ToLower(careLevel)
	if strings.TrimSpace(text) == "" {
		return CareClassNone
	}
	for _, ck := range careKeywords {
		for _, k := range ck.keywords {
			if strings.Contains(text, k) {
				return ck.class
			}
		}
	}
	return CareClassNone
}

// Filter step names, in application order.
const (
	StepCareLevel = "care_level"
	StepEnhanced  = "enhanced"
	StepEnriched  = "enriched"
	StepBudget    = "budget"
)

// FilterReport lists every criterion in application order with the number
// of rows left after it.
type FilterReport struct {
	Input int
	Steps []model.FilterStep
}

// Remaining returns the row count after the last step.
func (r FilterReport) Remaining() int {
	if len(r.Steps) == 0 {
		return r.Input
	}
	return r.Steps[len(r.Steps)-1].Remaining
}

type predicate func(c *model.Community) bool

// Filter returns the communities satisfying every applicable preference.
// Criteria run in the fixed order care level, enhanced, enriched, budget;
// a criterion whose preference is absent is recorded as not applied.
// The input slice is not modified.
func Filter(communities []model.Community, prefs *model.Preferences) ([]model.Community, FilterReport) {
	out := append([]model.Community(nil), communities...)
	report := FilterReport{Input: len(out)}
	if prefs == nil {
		prefs = &model.Preferences{}
	}

	apply := func(name string, keep predicate) {
		step := model.FilterStep{Name: name, Applied: keep != nil}
		if keep != nil {
			kept := out[:0]
			for i := range out {
				if keep(&out[i]) {
					kept = append(kept, out[i])
				}
			}
			out = kept
		}
		step.Remaining = len(out)
		report.Steps = append(report.Steps, step)
	}

	apply(StepCareLevel, carePredicate(ClassifyCareLevel(prefs.CareLevel)))
	apply(StepEnhanced, flagPredicate(prefs.Enhanced, func(c *model.Community) string { return c.Enhanced }))
	apply(StepEnriched, flagPredicate(prefs.Enriched, func(c *model.Community) string { return c.Enriched }))
	apply(StepBudget, budgetPredicate(prefs.MaxBudget))

	return out, report
}

func carePredicate(class CareClass) predicate {
	if class == CareClassNone {
		return nil
	}
	needle := strings.ToLower(string(class))
	return func(c *model.Community) bool {
		return strings.Contains(strings.ToLower(c.ServiceType), needle)
	}
}

func flagPredicate(flag model.Flag, field func(*model.Community) string) predicate {
	if !flag.IsYes() {
		return nil
	}
	return func(c *model.Community) bool {
		return strings.EqualFold(field(c), "yes")
	}
}

// budgetPredicate excludes rows without a parsed fee.
func budgetPredicate(maxBudget *float64) predicate {
	if maxBudget == nil {
		return nil
	}
	limit := *maxBudget
	return func(c *model.Community) bool {
		return c.MonthlyFee != nil && *c.MonthlyFee <= limit
	}
}
