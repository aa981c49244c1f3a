package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/anthropic"
)

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*anthropic.MessageResponse)
	return resp, args.Error(1)
}

func reply(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: text}}}
}

const transcript = "Hi, I'm calling about my dad Walter. He needs memory care near Webster. We can do $5,500 a month."

func TestExtract(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return req.Model == DefaultModel &&
			len(req.System) == 1 &&
			strings.Contains(req.System[0].Text, "JSON generator") &&
			strings.Contains(req.Messages[0].Content, "memory care near Webster")
	})).Return(reply("```json\n{\"name_of_patient\": \"Walter\", \"care_level\": \"Memory Care\", \"preferred_location\": [\"Webster, NY\"], \"max_budget\": 5500}\n```"), nil)

	res, err := New(llm, "", 0).Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "Walter", res.Preferences.PatientName)
	assert.Equal(t, []string{"Webster, NY"}, res.Preferences.PreferredLocations)
	require.NotNil(t, res.Preferences.MaxBudget)
	assert.InDelta(t, 5500, *res.Preferences.MaxBudget, 0.001)
	assert.False(t, res.BudgetFromTranscript)
	assert.Contains(t, res.Raw, "```json")
	llm.AssertExpectations(t)
}

func TestExtract_BudgetFallback(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(reply(`{"care_level": "Memory Care", "max_budget": ""}`), nil)

	res, err := New(llm, "", 0).Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.True(t, res.BudgetFromTranscript)
	assert.InDelta(t, 5500, *res.Preferences.MaxBudget, 0.001)
}

func TestExtract_ZeroBudgetUsesTranscript(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).
		Return(reply(`{"care_level": "Memory Care", "max_budget": 0}`), nil)

	res, err := New(llm, "", 0).Extract(context.Background(), transcript)
	require.NoError(t, err)
	assert.True(t, res.BudgetFromTranscript)
	assert.InDelta(t, 5500, *res.Preferences.MaxBudget, 0.001)
}

func TestExtract_EmptyPayload(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(reply("  \n"), nil)

	_, err := New(llm, "", 0).Extract(context.Background(), transcript)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestExtract_MalformedPayload(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(reply(`{"care_level": "Memory`), nil)

	_, err := New(llm, "", 0).Extract(context.Background(), transcript)
	var pe *PayloadError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, `{"care_level": "Memory`, pe.Raw)
}

func TestExtract_ModelError(t *testing.T) {
	llm := new(mockLLM)
	llm.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("overloaded"))

	_, err := New(llm, "", 0).Extract(context.Background(), transcript)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}

func TestExtract_EmptyTranscript(t *testing.T) {
	_, err := New(new(mockLLM), "", 0).Extract(context.Background(), "")
	require.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("Here you go:\n```\n{\"a\":1}\n```\nthanks"))
	assert.Equal(t, `{"a":1}`, StripFences(`  {"a":1}  `))
	assert.Equal(t, "", StripFences("```json\n```"))
}

func TestParsePayload_NotObject(t *testing.T) {
	_, err := ParsePayload(`["Memory Care"]`)
	var pe *PayloadError
	assert.True(t, errors.As(err, &pe))
}

func TestParsePayload_CoercesFields(t *testing.T) {
	p, err := ParsePayload(`{"max_budget": "4,000", "enhanced": "True", "preferred_location": "Greece, NY"}`)
	require.NoError(t, err)
	assert.InDelta(t, 4000, *p.MaxBudget, 0.001)
	assert.Equal(t, model.FlagYes, p.Enhanced)
	assert.Equal(t, []string{"Greece, NY"}, p.PreferredLocations)
}

func TestBudgetFromTranscript(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *float64
	}{
		{"dollar sign with comma", "We have about $4,000 per month", ptr(4000)},
		{"dollar sign plain", "she pays $3200 now", ptr(3200)},
		{"max of several", "between $3,500 and $4,750.00", ptr(4750)},
		{"dollars word", "maybe 4500 dollars", ptr(4500)},
		{"per month", "6,000 per month tops", ptr(6000)},
		{"budget phrase", "our budget is 5000", ptr(5000)},
		{"up to", "Up To 3,800 I think", ptr(3800)},
		{"dollar pattern wins over later patterns", "$2,000 deposit, budget is 9000", ptr(2000)},
		{"oversized amount stays positive", "we can pay up to $99999999999999999999 a month", ptr(99999999999999999999)},
		{"none", "we have not discussed money", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BudgetFromTranscript(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.GreaterOrEqual(t, *got, 0.0)
			assert.InEpsilon(t, *tt.want, *got, 1e-9)
		})
	}
}

func ptr(f float64) *float64 { return &f }
