package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/workflow"
)

// formatPreferences writes the extracted preferences as a short summary.
func formatPreferences(out io.Writer, p *model.Preferences) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Client:\t%s\n", dash(p.PatientName))
	_, _ = fmt.Fprintf(w, "Contact:\t%s\n", dash(p.Contact.Name))
	_, _ = fmt.Fprintf(w, "Care level:\t%s\n", dash(p.CareLevel))
	_, _ = fmt.Fprintf(w, "Locations:\t%s\n", dash(strings.Join(p.PreferredLocations, "; ")))
	budget := "-"
	if p.MaxBudget != nil {
		budget = explain.Money(*p.MaxBudget)
	}
	_, _ = fmt.Fprintf(w, "Max budget:\t%s\n", budget)
	_, _ = fmt.Fprintf(w, "Enhanced:\t%s\n", p.Enhanced)
	_, _ = fmt.Fprintf(w, "Enriched:\t%s\n", p.Enriched)
	_ = w.Flush()
}

// formatPresentation writes the per-tier top matches.
func formatPresentation(out io.Writer, p *workflow.Presentation) {
	if p == nil || p.Matches == 0 {
		_, _ = fmt.Fprintln(out, "No communities match the current criteria.")
		return
	}
	_, _ = fmt.Fprintf(out, "%d matching communities\n", p.Matches)

	for _, g := range p.Groups {
		_, _ = fmt.Fprintf(out, "\nPriority %d: %s (%d)\n", int(g.Tier), g.Label, g.Total)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RANK\tID\tTOWN\tTYPE\tFEE\tMILES")
		for _, e := range g.Entries {
			c := e.Community
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				c.RankInTier, c.ID, dash(c.Town), dash(c.ServiceType), fee(c.MonthlyFee), miles(c.DistanceMiles))
		}
		_ = w.Flush()
		for _, e := range g.Entries {
			if e.Explanation != "" {
				_, _ = fmt.Fprintf(out, "  %s: %s\n", e.Community.ID, e.Explanation)
			}
		}
	}
}

func fee(v *float64) string {
	if v == nil {
		return "-"
	}
	return explain.Money(*v)
}

func miles(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

