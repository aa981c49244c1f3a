package model

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// CareLevel is one of the care levels a community can offer.
type CareLevel string

const (
	CareLevelIndependent CareLevel = "Independent Living"
	CareLevelAssisted    CareLevel = "Assisted Living"
	CareLevelEnhanced    CareLevel = "Enhanced Assisted Living"
	CareLevelMemory      CareLevel = "Memory Care"
)

// CareLevels lists the care levels in the order they are offered to operators.
var CareLevels = []CareLevel{CareLevelIndependent, CareLevelAssisted, CareLevelEnhanced, CareLevelMemory}

// CanonicalCareLevel returns the care level whose name matches s
// case-insensitively, or the empty string.
func CanonicalCareLevel(s string) CareLevel {
	s = strings.TrimSpace(s)
	for _, lvl := range CareLevels {
		if strings.EqualFold(s, string(lvl)) {
			return lvl
		}
	}
	return ""
}

// MoveInWindow is the client's desired move-in timeframe.
type MoveInWindow string

const (
	MoveInUnknown   MoveInWindow = ""
	MoveInImmediate MoveInWindow = "Immediate (0-1 months)"
	MoveInNearTerm  MoveInWindow = "Near-term (1-6 months)"
	MoveInFlexible  MoveInWindow = "Flexible (6+ months)"
)

// ParseMoveInWindow maps free text onto a MoveInWindow.
func ParseMoveInWindow(s string) MoveInWindow {
	l := strings.ToLower(s)
	switch {
	case strings.Contains(l, "immediate"):
		return MoveInImmediate
	case strings.Contains(l, "near"):
		return MoveInNearTerm
	case strings.Contains(l, "flexible"):
		return MoveInFlexible
	default:
		return MoveInUnknown
	}
}

// Flag is a tri-state yes/no/unknown preference.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagYes
	FlagNo
)

// ParseFlag coerces a raw extracted value. Only true, "true", "True" and
// "Yes" count as yes; the list is case-sensitive.
func ParseFlag(v any) Flag {
	switch t := v.(type) {
	case bool:
		if t {
			return FlagYes
		}
		return FlagNo
	case string:
		switch t {
		case "true", "True", "Yes":
			return FlagYes
		case "false", "False", "No", "no":
			return FlagNo
		}
	}
	return FlagUnknown
}

// IsYes reports whether the flag is set.
func (f Flag) IsYes() bool { return f == FlagYes }

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "Yes"
	case FlagNo:
		return "No"
	default:
		return ""
	}
}

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		*f = FlagUnknown
		return nil
	}
	*f = ParseFlag(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (f Flag) MarshalYAML() (any, error) {
	return f.String(), nil
}

// Contact is the primary contact for the client, usually a family member.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone_number" yaml:"phone_number"`
	Email string `json:"email" yaml:"email"`
}

// Preferences is the structured client-requirement record extracted from a
// consultation call.
type Preferences struct {
	PatientName        string            `json:"name_of_patient" yaml:"name_of_patient"`
	PatientAge         string            `json:"age_of_patient" yaml:"age_of_patient"`
	Reason             string            `json:"injury_or_reason" yaml:"injury_or_reason"`
	Contact            Contact           `json:"primary_contact_information" yaml:"primary_contact_information"`
	CognitiveState     string            `json:"mentally" yaml:"mentally"`
	CareLevel          string            `json:"care_level" yaml:"care_level"`
	PreferredLocations []string          `json:"preferred_location" yaml:"preferred_location"`
	Enhanced           Flag              `json:"enhanced" yaml:"enhanced"`
	Enriched           Flag              `json:"enriched" yaml:"enriched"`
	MoveInWindow       MoveInWindow      `json:"move_in_window" yaml:"move_in_window"`
	MaxBudget          *float64          `json:"max_budget" yaml:"max_budget"`
	PetFriendly        Flag              `json:"pet_friendly" yaml:"pet_friendly"`
	TourAvailability   []string          `json:"tour_availability" yaml:"tour_availability"`
	OtherKeywords      map[string]string `json:"other_keywords" yaml:"other_keywords"`
}

// HasBudget reports whether a usable max budget is present.
func (p *Preferences) HasBudget() bool {
	return p.MaxBudget != nil
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	if p == nil {
		return nil
	}
	c := *p
	c.PreferredLocations = append([]string(nil), p.PreferredLocations...)
	c.TourAvailability = append([]string(nil), p.TourAvailability...)
	if p.MaxBudget != nil {
		b := *p.MaxBudget
		c.MaxBudget = &b
	}
	if p.OtherKeywords != nil {
		c.OtherKeywords = make(map[string]string, len(p.OtherKeywords))
		for k, v := range p.OtherKeywords {
			c.OtherKeywords[k] = v
		}
	}
	return &c
}

// UnmarshalJSON decodes any JSON object into Preferences, coercing or
// dropping malformed fields instead of failing.
func (p *Preferences) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return eris.Wrap(err, "preferences: decode object")
	}
	*p = PreferencesFromMap(raw)
	return nil
}

// UnmarshalYAML decodes a YAML mapping with the same coercions as JSON.
func (p *Preferences) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return eris.Wrap(err, "preferences: decode mapping")
	}
	*p = PreferencesFromMap(raw)
	return nil
}

// PreferencesFromMap builds a normalized Preferences record from a loosely
// typed extraction payload.
func PreferencesFromMap(raw map[string]any) Preferences {
	p := Preferences{
		PatientName:        text(raw["name_of_patient"]),
		PatientAge:         text(raw["age_of_patient"]),
		Reason:             text(raw["injury_or_reason"]),
		CognitiveState:     text(raw["mentally"]),
		CareLevel:          text(raw["care_level"]),
		PreferredLocations: textList(raw["preferred_location"]),
		Enhanced:           ParseFlag(raw["enhanced"]),
		Enriched:           ParseFlag(raw["enriched"]),
		MoveInWindow:       ParseMoveInWindow(text(raw["move_in_window"])),
		MaxBudget:          ParseBudget(raw["max_budget"]),
		PetFriendly:        ParseFlag(raw["pet_friendly"]),
		TourAvailability:   textList(raw["tour_availability"]),
		OtherKeywords:      textMap(raw["other_keywords"]),
	}
	if c, ok := raw["primary_contact_information"].(map[string]any); ok {
		p.Contact = Contact{
			Name:  text(c["name"]),
			Phone: text(c["phone_number"]),
			Email: text(c["email"]),
		}
	}
	return p
}

// ParseBudget coerces a raw budget into a finite non-negative number.
// Thousands separators, whitespace and a leading dollar sign are tolerated;
// anything else yields nil.
func ParseBudget(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case string:
		s := strings.ReplaceAll(t, ",", "")
		s = strings.TrimSpace(s)
		s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	return &f
}

// LoadPreferencesFile reads a preference record from a .json, .yaml or .yml file.
func LoadPreferencesFile(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "preferences: read file")
	}
	var p Preferences
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "preferences: parse %s", filepath.Base(path))
	}
	return &p, nil
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func textList(v any) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := text(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func textMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = text(val)
	}
	return out
}
