package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/placement-cli/internal/catalog"
	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/extract"
	"github.com/sells-group/placement-cli/internal/fetcher"
	"github.com/sells-group/placement-cli/internal/model"
	"github.com/sells-group/placement-cli/internal/ranking"
	"github.com/sells-group/placement-cli/internal/resilience"
	"github.com/sells-group/placement-cli/internal/store"
	"github.com/sells-group/placement-cli/internal/workflow"
	"github.com/sells-group/placement-cli/pkg/anthropic"
	"github.com/sells-group/placement-cli/pkg/geocode"
	"github.com/sells-group/placement-cli/pkg/transcribe"
)

// appEnv holds the collaborators a command needs. Unused ones stay nil.
type appEnv struct {
	Store       store.Store
	Transcriber transcribe.Transcriber
	LLM         anthropic.Client
	Extractor   *extract.Extractor
	Explainer   explain.Explainer
	Ranker      *ranking.Ranker
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close geocode cache", zap.Error(err))
		}
	}
}

// newController creates a workflow controller over the environment.
func (e *appEnv) newController() *workflow.Controller {
	deps := workflow.Deps{Explainer: e.Explainer}
	if e.Transcriber != nil {
		deps.Transcriber = e.Transcriber
	}
	if e.Extractor != nil {
		deps.Extractor = e.Extractor
	}
	if e.Ranker != nil {
		deps.Ranker = e.Ranker
	}
	return workflow.New(deps, workflow.Options{
		AutoAdvance: cfg.Workflow.AutoAdvance,
		TopN:        cfg.Ranking.TopN,
	})
}

// initEnv validates the configuration for mode and builds what it needs.
// Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode, offline); err != nil {
		return nil, err
	}

	env := &appEnv{Explainer: explain.Noop{}}
	needTranscribe := mode == "transcribe" || mode == "run" || mode == "serve"
	needExtract := mode == "extract" || mode == "run" || mode == "serve"
	needRank := mode == "rank" || mode == "run" || mode == "serve"

	if needTranscribe {
		t, err := newTranscriber()
		if err != nil {
			return nil, err
		}
		env.Transcriber = t
	}

	if needExtract || needRank {
		env.LLM = newLLM()
	}
	if needExtract && env.LLM != nil {
		env.Extractor = extract.New(env.LLM, cfg.Anthropic.ExtractionModel, cfg.Anthropic.MaxTokens)
	}

	if needRank {
		if env.LLM != nil {
			env.Explainer = explain.New(env.LLM,
				explain.WithModel(cfg.Anthropic.ExplanationModel),
				explain.WithMaxTokens(cfg.Anthropic.ExplanationMaxTokens),
				explain.WithTemperature(cfg.Anthropic.ExplanationTemperature),
			)
		}
		if err := env.initRanker(ctx); err != nil {
			env.Close()
			return nil, err
		}
	}

	return env, nil
}

func newTranscriber() (transcribe.Transcriber, error) {
	if offline {
		return &workflow.StubTranscriber{}, nil
	}
	opts := []transcribe.Option{transcribe.WithModel(cfg.OpenAI.TranscriptionModel)}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, transcribe.WithBaseURL(cfg.OpenAI.BaseURL))
	}
	if cfg.OpenAI.TimeoutSecs > 0 {
		opts = append(opts, transcribe.WithTimeout(time.Duration(cfg.OpenAI.TimeoutSecs)*time.Second))
	}
	t, err := transcribe.New(cfg.OpenAI.Key, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "init transcriber")
	}
	return t, nil
}

// newLLM returns the Anthropic client, or nil when no key is configured.
func newLLM() anthropic.Client {
	if offline {
		return &workflow.StubAnthropicClient{}
	}
	if cfg.Anthropic.Key == "" {
		zap.L().Debug("anthropic key not set, match explanations disabled")
		return nil
	}
	retries := cfg.Retry.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return anthropic.NewClient(cfg.Anthropic.Key, anthropic.Options{
		BaseURL:    cfg.Anthropic.BaseURL,
		MaxRetries: retries,
	})
}

func (e *appEnv) initRanker(ctx context.Context) error {
	st, err := store.Open(ctx, store.Options{
		Driver: cfg.Cache.Driver,
		DSN:    cfg.Cache.DSN,
		TTL:    cfg.Cache.TTL(),
	})
	if err != nil {
		return eris.Wrap(err, "open geocode cache")
	}
	e.Store = st
	if st != nil && cfg.Cache.TTLDays > 0 {
		if n, err := st.Purge(ctx); err != nil {
			zap.L().Warn("purge geocode cache", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("purged expired geocode entries", zap.Int64("rows", n))
		}
	}

	var geo geocode.Client
	if offline {
		geo = &workflow.StubGeocoder{}
	} else {
		opts := []geocode.Option{
			geocode.WithNominatimURL(cfg.Geocode.NominatimURL),
			geocode.WithUserAgent(cfg.Geocode.UserAgent),
			geocode.WithInterval(cfg.Geocode.Interval()),
		}
		if cfg.Geocode.TimeoutSecs > 0 {
			opts = append(opts, geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Geocode.TimeoutSecs) * time.Second}))
		}
		if cfg.Geocode.GoogleKey != "" {
			opts = append(opts, geocode.WithGoogleAPIKey(cfg.Geocode.GoogleKey))
			zap.L().Info("google geocoding fallback enabled")
		}
		geo = geocode.NewClient(opts...)
	}
	if st != nil {
		geo = geocode.NewCachedClient(geo, st)
	}

	src, err := newCatalogSource()
	if err != nil {
		return err
	}

	def := model.Coordinate{Lat: cfg.Geocode.DefaultLat, Lon: cfg.Geocode.DefaultLon}
	e.Ranker = ranking.NewRanker(src, ranking.NewGeoRanker(geo, &def, cfg.Geocode.PostalRegion))
	return nil
}

func newCatalogSource() (catalog.Source, error) {
	if offline && cfg.Catalog.Path == "" {
		return &catalog.StaticSource{Label: "sample", Data: workflow.SampleCatalog()}, nil
	}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Retry: resilience.FromSettings(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs),
	})
	kind := cfg.Catalog.Source
	if offline {
		kind = ""
	}
	return catalog.NewSource(catalog.SourceConfig{
		Kind:      kind,
		Path:      cfg.Catalog.Path,
		URL:       cfg.Catalog.URL,
		SheetID:   cfg.Catalog.SheetID,
		Worksheet: cfg.Catalog.Worksheet,
		APIKey:    cfg.Catalog.APIKey,
	}, f)
}
