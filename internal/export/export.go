// Package export writes ranked results as CSV files and an XLSX workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/placement-cli/internal/model"
)

// Columns are written for per-tier exports.
var Columns = []string{
	"Type of Service",
	"Town",
	"State",
	"Monthly Fee",
	"Distance_miles",
	"Rank_Within_Priority",
	"Apartment Type",
	"Enhanced",
	"Enriched",
	"CommunityID",
}

// FullColumns are written for the full ranked set.
var FullColumns = append(append([]string(nil), Columns...), "Priority_Level")

// Row renders one community in Columns order, followed by the tier when
// full is set.
func Row(c *model.Community, full bool) []string {
	row := []string{
		c.ServiceType,
		c.Town,
		c.State,
		optFloat(c.MonthlyFee, -1),
		optFloat(c.DistanceMiles, 2),
		strconv.Itoa(c.RankInTier),
		c.ApartmentType,
		c.Enhanced,
		c.Enriched,
		c.ID,
	}
	if full {
		row = append(row, strconv.Itoa(int(c.Tier)))
	}
	return row
}

// WriteCSV writes communities with a header row.
func WriteCSV(w io.Writer, communities []model.Community, full bool) error {
	cw := csv.NewWriter(w)
	header := Columns
	if full {
		header = FullColumns
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for i := range communities {
		if err := cw.Write(Row(&communities[i], full)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteResultCSV writes the full set when tier is zero, otherwise the
// subset for that tier.
func WriteResultCSV(w io.Writer, rs *model.ResultSet, tier model.Tier) error {
	if tier == 0 {
		var all []model.Community
		if rs != nil {
			all = rs.Communities
		}
		return WriteCSV(w, all, true)
	}
	if !tier.Valid() {
		return eris.Errorf("export: unknown tier %d", int(tier))
	}
	return WriteCSV(w, rs.ByTier(tier), false)
}

// FileName returns the download name for an export. Tier zero names the
// full set.
func FileName(patient string, tier model.Tier) string {
	name := SafeName(patient)
	if tier == 0 {
		return fmt.Sprintf("all_matches_%s.csv", name)
	}
	return fmt.Sprintf("priority%d_%s.csv", int(tier), name)
}

// WorkbookName returns the download name for the XLSX workbook.
func WorkbookName(patient string) string {
	return fmt.Sprintf("matches_%s.xlsx", SafeName(patient))
}

// SafeName turns a patient name into a file-name fragment.
func SafeName(patient string) string {
	patient = strings.TrimSpace(patient)
	if patient == "" {
		return "client"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, patient)
}

// Workbook builds an XLSX file with an "All" sheet and one sheet per
// non-empty tier.
func Workbook(rs *model.ResultSet) (*xlsx.File, error) {
	f := xlsx.NewFile()
	var all []model.Community
	if rs != nil {
		all = rs.Communities
	}
	if err := addSheet(f, "All", all, true); err != nil {
		return nil, err
	}
	for _, t := range model.Tiers {
		subset := rs.ByTier(t)
		if len(subset) == 0 {
			continue
		}
		if err := addSheet(f, fmt.Sprintf("Priority %d", int(t)), subset, false); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook for rs to w.
func WriteXLSX(w io.Writer, rs *model.ResultSet) error {
	f, err := Workbook(rs)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "export: write xlsx")
}

// WriteFiles writes the full CSV, one CSV per non-empty tier and the
// workbook into dir. It returns the written paths.
func WriteFiles(dir, patient string, rs *model.ResultSet) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}

	var paths []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", name)
		}
		if err := fn(f); err != nil {
			f.Close() //nolint:errcheck
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "export: close %s", name)
		}
		paths = append(paths, path)
		return nil
	}

	if err := write(FileName(patient, 0), func(w io.Writer) error {
		return WriteResultCSV(w, rs, 0)
	}); err != nil {
		return paths, err
	}
	for _, t := range model.Tiers {
		if len(rs.ByTier(t)) == 0 {
			continue
		}
		if err := write(FileName(patient, t), func(w io.Writer) error {
			return WriteResultCSV(w, rs, t)
		}); err != nil {
			return paths, err
		}
	}
	if err := write(WorkbookName(patient), func(w io.Writer) error {
		return WriteXLSX(w, rs)
	}); err != nil {
		return paths, err
	}
	return paths, nil
}

func addSheet(f *xlsx.File, name string, communities []model.Community, full bool) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	header := Columns
	if full {
		header = FullColumns
	}
	hr := sheet.AddRow()
	for _, h := range header {
		hr.AddCell().SetString(h)
	}
	for i := range communities {
		c := &communities[i]
		row := sheet.AddRow()
		for j, v := range Row(c, full) {
			cell := row.AddCell()
			switch {
			case j == 3 && c.MonthlyFee != nil:
				cell.SetFloat(*c.MonthlyFee)
			case j == 4 && c.DistanceMiles != nil:
				cell.SetFloat(roundTo(*c.DistanceMiles, 2))
			default:
				cell.SetString(v)
			}
		}
	}
	return nil
}

func optFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func roundTo(v float64, prec int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', prec, 64), 64)
	return f
}
