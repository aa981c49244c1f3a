package catalog

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field is a canonical catalog column.
type Field int

const (
	FieldServiceType Field = iota
	FieldMonthlyFee
	FieldEnhanced
	FieldEnriched
	FieldContract
	FieldPlacement
	FieldZip
	FieldTown
	FieldState
	FieldApartmentType
	FieldWaitlist
	FieldCommunityID
	fieldCount
)

// Header returns the column name the catalog is expected to use.
func (f Field) Header() string {
	switch f {
	case FieldServiceType:
		return "Type of Service"
	case FieldMonthlyFee:
		return "Monthly Fee"
	case FieldEnhanced:
		return "Enhanced"
	case FieldEnriched:
		return "Enriched"
	case FieldContract:
		return "Contract (w rate)?"
	case FieldPlacement:
		return "Work with Placement?"
	case FieldZip:
		return "Zip Code"
	case FieldTown:
		return "Town"
	case FieldState:
		return "State"
	case FieldApartmentType:
		return "Apartment Type"
	case FieldWaitlist:
		return "Est. Waitlist Length"
	case FieldCommunityID:
		return "CommunityID"
	default:
		return ""
	}
}

// FuzzyThreshold is the minimum Jaro-Winkler score for a near-miss header.
const FuzzyThreshold = 0.92

// Schema maps canonical fields to column indexes of a raw table.
type Schema struct {
	Headers []string
	columns [fieldCount]int
	extra   []int
}

// Column returns the column index of f, or -1.
func (s *Schema) Column(f Field) int {
	return s.columns[f]
}

// Has reports whether the table carries f.
func (s *Schema) Has(f Field) bool {
	return s.columns[f] >= 0
}

// Missing lists canonical fields absent from the table.
func (s *Schema) Missing() []Field {
	var out []Field
	for f := Field(0); f < fieldCount; f++ {
		if !s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// ResolveSchema maps headers onto canonical fields. Exact matches on the
// folded header win; the zip column is the first header containing "zip";
// remaining fields take the best unclaimed header scoring at least
// FuzzyThreshold. Unclaimed headers become extras.
func ResolveSchema(headers []string) *Schema {
	s := &Schema{Headers: headers}
	for i := range s.columns {
		s.columns[i] = -1
	}

	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = Fold(h)
	}
	claimed := make([]bool, len(headers))

	claim := func(f Field, col int) {
		s.columns[f] = col
		claimed[col] = true
	}

	for f := Field(0); f < fieldCount; f++ {
		if f == FieldZip {
			continue
		}
		want := Fold(f.Header())
		for i, h := range folded {
			if !claimed[i] && h == want {
				claim(f, i)
				break
			}
		}
	}

	for i, h := range headers {
		if !claimed[i] && strings.Contains(strings.ToLower(h), "zip") {
			claim(FieldZip, i)
			break
		}
	}

	for f := Field(0); f < fieldCount; f++ {
		if s.Has(f) || f == FieldZip {
			continue
		}
		want := Fold(f.Header())
		best, bestScore := -1, FuzzyThreshold
		for i, h := range folded {
			if claimed[i] || h == "" {
				continue
			}
			if score := matchr.JaroWinkler(h, want, false); score >= bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 {
			claim(f, best)
		}
	}

	for i := range headers {
		if !claimed[i] && strings.TrimSpace(headers[i]) != "" {
			s.extra = append(s.extra, i)
		}
	}
	return s
}

var folder = cases.Fold()

// Fold lowercases s, strips diacritics and collapses punctuation runs to
// single spaces.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	stripped = folder.String(stripped)

	var b strings.Builder
	space := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}
