// Package catalog loads the community catalog and normalizes it into
// model.Community records.
package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/fetcher"
	"github.com/sells-group/placement-cli/pkg/sheets"
)

// Source yields the raw catalog table, header row first.
type Source interface {
	Name() string
	Rows(ctx context.Context) ([][]string, error)
}

// Load reads src and normalizes the result. Any source failure is returned
// wrapped; an empty table is not an error.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	rows, err := src.Rows(ctx)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: load %s", src.Name())
	}
	cat := Normalize(rows)

	log := zap.L().With(zap.String("source", src.Name()))
	if missing := cat.Schema.Missing(); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = f.Header()
		}
		log.Warn("catalog: missing columns", zap.Strings("columns", names))
	}
	log.Info("catalog loaded",
		zap.Int("communities", len(cat.Communities)),
		zap.Int("unparsed_fees", cat.UnparsedFees),
	)
	return cat, nil
}

// SheetsSource reads one worksheet of a Google spreadsheet.
type SheetsSource struct {
	Client        sheets.Client
	SpreadsheetID string
	Worksheet     string
}

// Name implements Source.
func (s *SheetsSource) Name() string { return "sheets:" + s.Worksheet }

// Rows implements Source.
func (s *SheetsSource) Rows(ctx context.Context) ([][]string, error) {
	return s.Client.Values(ctx, s.SpreadsheetID, s.Worksheet)
}

// CSVFileSource reads a local CSV export.
type CSVFileSource struct {
	Path string
}

// Name implements Source.
func (s *CSVFileSource) Name() string { return "csv:" + filepath.Base(s.Path) }

// Rows implements Source.
func (s *CSVFileSource) Rows(_ context.Context) ([][]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close() //nolint:errcheck
	return fetcher.ReadCSV(f, fetcher.CSVOptions{TrimSpace: true})
}

// XLSXFileSource reads one worksheet of a local workbook.
type XLSXFileSource struct {
	Path      string
	Worksheet string
}

// Name implements Source.
func (s *XLSXFileSource) Name() string { return "xlsx:" + filepath.Base(s.Path) }

// Rows implements Source.
func (s *XLSXFileSource) Rows(_ context.Context) ([][]string, error) {
	return fetcher.ReadXLSX(s.Path, fetcher.XLSXOptions{SheetName: s.Worksheet})
}

// URLSource downloads a CSV catalog, such as a published sheet export.
type URLSource struct {
	Fetcher fetcher.Fetcher
	URL     string
}

// Name implements Source.
func (s *URLSource) Name() string { return "url" }

// Rows implements Source.
func (s *URLSource) Rows(ctx context.Context) ([][]string, error) {
	body, err := s.Fetcher.Download(ctx, s.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck
	return fetcher.ReadCSV(body, fetcher.CSVOptions{TrimSpace: true})
}

// StaticSource serves fixed rows. Offline runs and tests use it.
type StaticSource struct {
	Label string
	Data  [][]string
}

// Name implements Source.
func (s *StaticSource) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Rows implements Source.
func (s *StaticSource) Rows(context.Context) ([][]string, error) {
	out := make([][]string, len(s.Data))
	for i, r := range s.Data {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// SourceConfig selects and parameterizes a Source.
type SourceConfig struct {
	Kind      string // sheets, csv, xlsx, url
	Path      string
	URL       string
	SheetID   string
	Worksheet string
	APIKey    string
}

// NewSource builds the Source named by cfg.Kind. An empty kind is inferred
// from the path extension, then the URL, then sheets.
func NewSource(cfg SourceConfig, f fetcher.Fetcher) (Source, error) {
	kind := strings.ToLower(cfg.Kind)
	if kind == "" {
		switch {
		case strings.HasSuffix(strings.ToLower(cfg.Path), ".xlsx"):
			kind = "xlsx"
		case cfg.Path != "":
			kind = "csv"
		case cfg.URL != "":
			kind = "url"
		default:
			kind = "sheets"
		}
	}

	switch kind {
	case "sheets":
		if cfg.SheetID == "" || cfg.APIKey == "" {
			return nil, eris.New("catalog: sheets source requires sheet_id and api_key")
		}
		return &SheetsSource{
			Client:        sheets.NewClient(cfg.APIKey),
			SpreadsheetID: cfg.SheetID,
			Worksheet:     cfg.Worksheet,
		}, nil
	case "csv":
		if cfg.Path == "" {
			return nil, eris.New("catalog: csv source requires path")
		}
		return &CSVFileSource{Path: cfg.Path}, nil
	case "xlsx":
		if cfg.Path == "" {
			return nil, eris.New("catalog: xlsx source requires path")
		}
		return &XLSXFileSource{Path: cfg.Path, Worksheet: cfg.Worksheet}, nil
	case "url":
		if cfg.URL == "" {
			return nil, eris.New("catalog: url source requires url")
		}
		if f == nil {
			f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		}
		return &URLSource{Fetcher: f, URL: cfg.URL}, nil
	default:
		return nil, eris.Errorf("catalog: unknown source %q", cfg.Kind)
	}
}
