package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/placement-cli/internal/model"
)

// ErrEmptyPayload is returned when the model produced no content.
var ErrEmptyPayload = errors.New("extract: empty response from model")

// PayloadError reports a response that is not a JSON object. Raw holds
// the payload as received, for the operator's debug view.
type PayloadError struct {
	Raw string
	Err error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("extract: malformed preference payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// StripFences removes a surrounding ```json or ``` block. Text outside
// the first fenced block is discarded.
func StripFences(raw string) string {
	if _, after, ok := strings.Cut(raw, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(raw, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(raw)
}

// ParsePayload decodes a model response into Preferences.
func ParsePayload(raw string) (*model.Preferences, error) {
	payload := StripFences(raw)
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	var p model.Preferences
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, &PayloadError{Raw: raw, Err: err}
	}
	return &p, nil
}

// budgetPatterns are tried in order; the first with any match wins.
var budgetPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\$\s*(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+)\s*(?:dollars?|per\s*month|/month)`),
	regexp.MustCompile(`(?i)(?:budget|maximum|max|up to)\s*(?:is|of)?\s*\$?\s*(\d{1,3}(?:,\d{3})+|\d+)`),
}

// BudgetFromTranscript scans transcript for monthly amounts and returns
// the largest match of the first pattern that matches, as a whole number.
func BudgetFromTranscript(transcript string) *float64 {
	for _, re := range budgetPatterns {
		matches := re.FindAllStringSubmatch(transcript, -1)
		if len(matches) == 0 {
			continue
		}
		var best *float64
		for _, m := range matches {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
			if err != nil || math.IsInf(v, 0) {
				continue
			}
			if best == nil || v > *best {
				best = &v
			}
		}
		if best != nil {
			whole := math.Trunc(*best)
			return &whole
		}
	}
	return nil
}
