// Package extract turns a consultation transcript into a normalized
// preference record using a language model.
package extract

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/pkg/anthropic"
)

// DefaultModel is the extraction model.
const DefaultModel = "claude-haiku-4-5-20251001"

// Result is the outcome of one extraction.
type Result struct {
	Preferences *model.Preferences
	// Raw is the model output before fence stripping.
	Raw string
	// BudgetFromTranscript is set when max_budget came from the transcript
	// scan rather than the model.
	BudgetFromTranscript bool
}

// Extractor extracts preferences with an Anthropic model.
type Extractor struct {
	llm       anthropic.Client
	model     string
	maxTokens int64
}

// New creates an Extractor. Zero values select DefaultModel and 2048 tokens.
func New(llm anthropic.Client, model string, maxTokens int64) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Extractor{llm: llm, model: model, maxTokens: maxTokens}
}

// Extract sends transcript to the model and parses the reply. An empty
// reply yields ErrEmptyPayload and a non-object reply a *PayloadError.
func (e *Extractor) Extract(ctx context.Context, transcript string) (*Result, error) {
	if transcript == "" {
		return nil, eris.New("extract: transcript is empty")
	}

	resp, err := e.llm.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    anthropic.CachedSystem(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, transcript)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: model call")
	}
	resp.Usage.LogCost(e.model, "extract")

	return Finish(resp.Text(), transcript)
}

// Finish parses raw model output and applies the transcript budget
// fallback. Offline extractors share it.
func Finish(raw, transcript string) (*Result, error) {
	prefs, err := ParsePayload(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{Preferences: prefs, Raw: raw}
	// A zero budget is treated as unstated.
	if !prefs.HasBudget() || *prefs.MaxBudget == 0 {
		if b := BudgetFromTranscript(transcript); b != nil {
			prefs.MaxBudget = b
			res.BudgetFromTranscript = true
			zap.L().Info("extract: budget detected in transcript", zap.Float64("max_budget", *b))
		}
	}
	return res, nil
}
