package workflow

import (
	"context"
	"strings"

	"github.com/sells-group/placement-cli/pkg/anthropic"
	"github.com/sells-group/placement-cli/pkg/geocode"
	"github.com/sells-group/placement-cli/pkg/transcribe"
)

// Compile-time interface checks.
var (
	_ transcribe.Transcriber = (*StubTranscriber)(nil)
	_ anthropic.Client       = (*StubAnthropicClient)(nil)
	_ geocode.Client         = (*StubGeocoder)(nil)
)

// --- Transcription Stub ---

// SampleTranscript is returned by StubTranscriber when Text is empty.
const SampleTranscript = `Hi, this is Ann Hill calling about my mother, Margaret. She is 84 and had a fall last month. ` +
	`She is sharp mentally but needs help with bathing and medications, so we are looking at assisted living. ` +
	`We would like something near Webster or Penfield so I can visit. She would want the enhanced program. ` +
	`We can manage about $5,000 per month. Ideally she would move in the next few months. ` +
	`You can reach me at 585-555-0100 or ann.hill@example.com.`

// StubTranscriber implements transcribe.Transcriber with a canned transcript.
type StubTranscriber struct {
	Text string
}

// Transcribe implements transcribe.Transcriber.
func (s *StubTranscriber) Transcribe(_ context.Context, audio []byte, ext string) (string, error) {
	if len(audio) == 0 {
		return "", &transcribe.Error{Ext: ext, Err: transcribe.ErrEmptyAudio}
	}
	if s.Text != "" {
		return s.Text, nil
	}
	return SampleTranscript, nil
}

// --- Anthropic Stub ---

const stubPreferences = "```json\n" + `{
  "name_of_patient": "Margaret Hill",
  "age_of_patient": 84,
  "injury_or_reason": "Fall; needs help with bathing and medications",
  "primary_contact_information": {"name": "Ann Hill", "phone_number": "585-555-0100", "email": "ann.hill@example.com"},
  "mentally": "Sharp",
  "care_level": "Assisted Living",
  "preferred_location": ["Webster, NY", "Penfield, NY"],
  "enhanced": "Yes",
  "enriched": "",
  "move_in_window": "Near-term (1-6 months)",
  "max_budget": null,
  "pet_friendly": "",
  "tour_availability": [],
  "other_keywords": {}
}` + "\n```"

// StubAnthropicClient implements anthropic.Client with canned responses.
type StubAnthropicClient struct{}

// CreateMessage implements anthropic.Client.
func (s *StubAnthropicClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	// Detect extraction vs explanation by the system prompt.
	content := ""
	for _, sys := range req.System {
		content += sys.Text
	}

	responseText := "This community offers the requested level of care within the client's budget and close to family, " +
		"and its relationship with our placement team makes the move straightforward."
	if strings.Contains(content, "JSON generator") {
		responseText = stubPreferences
	}

	return &anthropic.MessageResponse{
		ID:         "stub-msg-001",
		Model:      req.Model,
		Content:    []anthropic.ContentBlock{{Type: "text", Text: responseText}},
		StopReason: "end_turn",
		Usage: anthropic.TokenUsage{
			InputTokens:  150,
			OutputTokens: 50,
		},
	}, nil
}

// --- Geocoder Stub ---

type stubPlace struct {
	lat, lon float64
	town     string
}

// stubPlaces covers the Rochester, NY service area by town and ZIP.
var stubPlaces = map[string]stubPlace{
	"rochester":   {43.1566, -77.6088, "Rochester"},
	"14604":       {43.1566, -77.6088, "Rochester"},
	"webster":     {43.2123, -77.4300, "Webster"},
	"14580":       {43.2123, -77.4300, "Webster"},
	"penfield":    {43.1301, -77.4758, "Penfield"},
	"14526":       {43.1301, -77.4758, "Penfield"},
	"pittsford":   {43.0906, -77.5150, "Pittsford"},
	"14534":       {43.0906, -77.5150, "Pittsford"},
	"greece":      {43.2098, -77.6931, "Greece"},
	"14612":       {43.2098, -77.6931, "Greece"},
	"brighton":    {43.1217, -77.5669, "Brighton"},
	"14618":       {43.1217, -77.5669, "Brighton"},
	"henrietta":   {43.0593, -77.6122, "Henrietta"},
	"14467":       {43.0593, -77.6122, "Henrietta"},
	"fairport":    {43.0987, -77.4419, "Fairport"},
	"14450":       {43.0987, -77.4419, "Fairport"},
	"irondequoit": {43.2134, -77.5797, "Irondequoit"},
	"14617":       {43.2134, -77.5797, "Irondequoit"},
}

// StubGeocoder implements geocode.Client from a fixed gazetteer of the
// Rochester area. Unknown places are not matched.
type StubGeocoder struct{}

// Geocode implements geocode.Client.
func (s *StubGeocoder) Geocode(_ context.Context, query string) (*geocode.Result, error) {
	key, _, _ := strings.Cut(query, ",")
	p, ok := stubPlaces[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return &geocode.Result{Source: "stub"}, nil
	}
	return &geocode.Result{
		Latitude:  p.lat,
		Longitude: p.lon,
		Town:      p.town,
		State:     "NY",
		Source:    "stub",
		Matched:   true,
	}, nil
}

// SampleCatalog is a small community table for offline runs.
func SampleCatalog() [][]string {
	return [][]string{
		{"CommunityID", "Type of Service", "Monthly Fee", "Enhanced", "Enriched", "Contract (w rate)?", "Work with Placement?", "Zip Code", "Town", "State", "Apartment Type", "Est. Waitlist Length"},
		{"RC-101", "Assisted Living", "$4,800.00", "Yes", "No", "Yes - Rate A", "Yes", "14580", "Webster", "NY", "1 Bedroom", "None"},
		{"RC-102", "Assisted Living / Memory Care", "$5,900.00", "Yes", "Yes", "Yes - Rate B", "Yes", "14526", "Penfield", "NY", "Studio", "3 months"},
		{"RC-103", "Enhanced Assisted Living", "$4,250", "yes", "No", "no", "yes", "14534", "Pittsford", "NY", "Studio", "1 month"},
		{"RC-104", "Assisted Living", "Call for pricing", "Yes", "No", "no", "yes", "14618", "Brighton", "NY", "1 Bedroom", ""},
		{"RC-105", "Assisted Living", "$3,950", "Yes", "Yes", "no", "no", "14612", "Greece", "NY", "Studio", "None"},
		{"RC-106", "Independent Living", "$3,100", "No", "Yes", "Yes", "Yes", "14450", "Fairport", "NY", "2 Bedroom", "6 months"},
		{"RC-107", "Assisted Living", "$4,400", "YES", "No", "", "no", "14617", "Irondequoit", "NY", "1 Bedroom", "2 weeks"},
		{"RC-108", "Memory Care", "$7,200", "Yes", "No", "Yes", "Yes", "14467", "Henrietta", "NY", "Private Suite", "None"},
		{"RC-109", "Assisted Living", "$4,600", "Yes", "No", "no", "yes", "", "Rochester", "NY", "Studio", "None"},
	}
}
