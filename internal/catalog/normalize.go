package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/placement-cli/internal/model"
)

var feeNumber = regexp.MustCompile(`(\d+\.?\d*)`)

// ParseFee extracts the monthly fee from currency text. Currency symbols
// and thousands separators are removed and the first decimal token is
// parsed; text without one yields nil.
func ParseFee(s string) *float64 {
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	m := feeNumber.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Catalog is a normalized community table.
type Catalog struct {
	Schema      *Schema
	Communities []model.Community
	// UnparsedFees counts non-empty fee cells that held no number.
	UnparsedFees int
}

// Normalize converts raw rows (header first) into communities. A table
// without a header row yields an empty catalog.
func Normalize(rows [][]string) *Catalog {
	if len(rows) == 0 {
		return &Catalog{Schema: ResolveSchema(nil)}
	}

	schema := ResolveSchema(rows[0])
	cat := &Catalog{Schema: schema, Communities: make([]model.Community, 0, len(rows)-1)}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(f Field) string {
			col := schema.Column(f)
			if col < 0 || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		c := model.Community{
			ID:               cell(FieldCommunityID),
			ServiceType:      cell(FieldServiceType),
			FeeText:          cell(FieldMonthlyFee),
			Enhanced:         cell(FieldEnhanced),
			Enriched:         cell(FieldEnriched),
			ContractStatus:   cell(FieldContract),
			PlacementPartner: cell(FieldPlacement),
			ZipCode:          cell(FieldZip),
			Town:             cell(FieldTown),
			State:            cell(FieldState),
			WaitlistEstimate: cell(FieldWaitlist),
			ApartmentType:    cell(FieldApartmentType),
		}
		c.MonthlyFee = ParseFee(c.FeeText)
		if c.MonthlyFee == nil && c.FeeText != "" {
			cat.UnparsedFees++
		}

		for _, col := range schema.extra {
			if col >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[col]); v != "" {
				if c.Extra == nil {
					c.Extra = make(map[string]string)
				}
				c.Extra[strings.TrimSpace(schema.Headers[col])] = v
			}
		}
		cat.Communities = append(cat.Communities, c)
	}
	return cat
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
