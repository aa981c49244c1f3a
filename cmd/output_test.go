package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/workflow"
)

func TestFormatPresentation(t *testing.T) {
	fee := 4200.0
	dist := 3.4
	p := &workflow.Presentation{
		Matches: 2,
		Groups: []workflow.TierGroup{
			{
				Tier:  model.TierContracted,
				Label: model.TierContracted.Label(),
				Total: 1,
				Entries: []workflow.Entry{{
					Community:   model.Community{ID: "RC-101", Town: "Webster", ServiceType: "Assisted Living", MonthlyFee: &fee, DistanceMiles: &dist, RankInTier: 1},
					Explanation: "Close to family.",
				}},
			},
			{
				Tier:    model.TierOther,
				Label:   model.TierOther.Label(),
				Total:   1,
				Entries: []workflow.Entry{{Community: model.Community{ID: "RC-105", RankInTier: 1}}},
			},
		},
	}

	var buf bytes.Buffer
	formatPresentation(&buf, p)
	out := buf.String()

	assert.Contains(t, out, "2 matching communities")
	assert.Contains(t, out, "Priority 1: Contracted (1)")
	assert.Contains(t, out, "Priority 3: Other (1)")
	assert.Contains(t, out, "RC-101")
	assert.Contains(t, out, "$4,200")
	assert.Contains(t, out, "3.4")
	assert.Contains(t, out, "RC-101: Close to family.")
	assert.NotContains(t, out, "Partners")
}

func TestFormatPresentation_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatPresentation(&buf, &workflow.Presentation{})
	assert.Contains(t, buf.String(), "No communities match")

	buf.Reset()
	formatPresentation(&buf, nil)
	assert.Contains(t, buf.String(), "No communities match")
}

func TestFormatPreferences(t *testing.T) {
	budget := 5000.0
	p := &model.Preferences{
		PatientName:        "Margaret Hill",
		CareLevel:          "Assisted Living",
		PreferredLocations: []string{"Webster, NY", "Penfield, NY"},
		MaxBudget:          &budget,
		Enhanced:           model.FlagYes,
	}

	var buf bytes.Buffer
	formatPreferences(&buf, p)
	out := buf.String()

	assert.Contains(t, out, "Margaret Hill")
	assert.Contains(t, out, "Webster, NY; Penfield, NY")
	assert.Contains(t, out, "$5,000")
}

func TestWritePreferences(t *testing.T) {
	p := &model.Preferences{PatientName: "Walter Price", CareLevel: "Memory Care"}

	var buf bytes.Buffer
	require.NoError(t, writePreferences(&buf, p, "json"))
	assert.Contains(t, buf.String(), `"name_of_patient": "Walter Price"`)

	buf.Reset()
	require.NoError(t, writePreferences(&buf, p, "yaml"))
	assert.Contains(t, buf.String(), "name_of_patient: Walter Price")

	assert.Error(t, writePreferences(&buf, p, "xml"))
}

func TestRunAmendment(t *testing.T) {
	_, ok := runAmendment(runCmd)
	assert.False(t, ok)
}
