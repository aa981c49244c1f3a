// Package explain generates short advisor-style explanations of why a
// community matches a client.
package explain

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/anthropic"
)

// Default generation settings.
const (
	DefaultModel       = "claude-haiku-4-5-20251001"
	DefaultMaxTokens   = 200
	DefaultTemperature = 0.5
)

// Explainer produces a match explanation for one community. Callers treat
// failures as best-effort.
type Explainer interface {
	Explain(ctx context.Context, prefs *model.Preferences, c *model.Community) (string, error)
}

// Compile-time interface checks.
var (
	_ Explainer = (*LLMExplainer)(nil)
	_ Explainer = Noop{}
)

// LLMExplainer asks an Anthropic model for the explanation.
type LLMExplainer struct {
	llm         anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// Option configures an LLMExplainer.
type Option func(*LLMExplainer)

// WithModel overrides DefaultModel.
func WithModel(m string) Option {
	return func(e *LLMExplainer) {
		if m != "" {
			e.model = m
		}
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int64) Option {
	return func(e *LLMExplainer) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(e *LLMExplainer) { e.temperature = t }
}

// New creates an LLMExplainer.
func New(llm anthropic.Client, opts ...Option) *LLMExplainer {
	e := &LLMExplainer{
		llm:         llm,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Explain implements Explainer.
func (e *LLMExplainer) Explain(ctx context.Context, prefs *model.Preferences, c *model.Community) (string, error) {
	if prefs == nil || c == nil {
		return "", eris.New("explain: preferences and community are required")
	}
	temp := e.temperature
	resp, err := e.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   e.maxTokens,
		Temperature: &temp,
		Messages:    []anthropic.Message{{Role: "user", Content: Prompt(prefs, c)}},
	})
	if err != nil {
		return "", eris.Wrapf(err, "explain: community %s", c.ID)
	}
	resp.Usage.LogCost(e.model, "explain")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Errorf("explain: empty response for community %s", c.ID)
	}
	return text, nil
}

// Noop returns no explanation. Used when no model is configured.
type Noop struct{}

// Explain implements Explainer.
func (Noop) Explain(context.Context, *model.Preferences, *model.Community) (string, error) {
	return "", nil
}

const promptTemplate = `As a senior living placement advisor, explain in 2-3 concise sentences why this community is a good match for the client.

Client Needs:
- Care Level: %s
- Budget: %s
- Preferred Location: %s
- Special Requirements: Enhanced=%s, Enriched=%s

Community Details:
- Type: %s
- Location: %s, %s
- Monthly Fee: %s
- Distance: %s
- Priority Level: %d (%s)

Focus on: care level match, location convenience, value proposition, and why this priority tier makes sense.`

// Prompt renders the explanation prompt for one community.
func Prompt(prefs *model.Preferences, c *model.Community) string {
	notSpecified := func(s string) string {
		if s == "" {
			return "Not specified"
		}
		return s
	}
	budget := "Not specified"
	if prefs.MaxBudget != nil {
		budget = Money(*prefs.MaxBudget)
	}
	fee := "N/A"
	if c.MonthlyFee != nil {
		fee = Money(*c.MonthlyFee)
	}
	dist := "N/A"
	if c.DistanceMiles != nil {
		dist = strconv.FormatFloat(*c.DistanceMiles, 'f', 1, 64) + " miles"
	}

	return fmt.Sprintf(promptTemplate,
		notSpecified(prefs.CareLevel),
		budget,
		notSpecified(strings.Join(prefs.PreferredLocations, "; ")),
		yesNo(prefs.Enhanced), yesNo(prefs.Enriched),
		orNA(c.ServiceType),
		orNA(c.Town), orNA(c.State),
		fee,
		dist,
		int(c.Tier), tierNote(c.Tier),
	)
}

// Money formats a whole-dollar amount with thousands separators.
func Money(v float64) string {
	n := int64(v)
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

func yesNo(f model.Flag) string {
	if f.IsYes() {
		return "Yes"
	}
	return "No"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func tierNote(t model.Tier) string {
	switch t {
	case model.TierContracted:
		return "Contracted rates"
	case model.TierPartner:
		return "Placement partner"
	default:
		return "Other"
	}
}
