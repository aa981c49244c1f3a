package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Geocode   GeocodeConfig   `yaml:"geocode" mapstructure:"geocode"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Ranking   RankingConfig   `yaml:"ranking" mapstructure:"ranking"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Workflow  WorkflowConfig  `yaml:"workflow" mapstructure:"workflow"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// OpenAIConfig holds speech-to-text settings.
type OpenAIConfig struct {
	Key                string `yaml:"key" mapstructure:"key"`
	BaseURL            string `yaml:"base_url" mapstructure:"base_url"`
	TranscriptionModel string `yaml:"transcription_model" mapstructure:"transcription_model"`
	TimeoutSecs        int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key                    string  `yaml:"key" mapstructure:"key"`
	BaseURL                string  `yaml:"base_url" mapstructure:"base_url"`
	ExtractionModel        string  `yaml:"extraction_model" mapstructure:"extraction_model"`
	ExplanationModel       string  `yaml:"explanation_model" mapstructure:"explanation_model"`
	MaxTokens              int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	ExplanationMaxTokens   int64   `yaml:"explanation_max_tokens" mapstructure:"explanation_max_tokens"`
	ExplanationTemperature float64 `yaml:"explanation_temperature" mapstructure:"explanation_temperature"`
}

// CatalogConfig selects the community catalog source.
type CatalogConfig struct {
	Source    string `yaml:"source" mapstructure:"source"`
	Path      string `yaml:"path" mapstructure:"path"`
	URL       string `yaml:"url" mapstructure:"url"`
	SheetID   string `yaml:"sheet_id" mapstructure:"sheet_id"`
	Worksheet string `yaml:"worksheet" mapstructure:"worksheet"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
}

// GeocodeConfig configures place and postal-code lookups.
type GeocodeConfig struct {
	Provider     string  `yaml:"provider" mapstructure:"provider"`
	NominatimURL string  `yaml:"nominatim_url" mapstructure:"nominatim_url"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	GoogleKey    string  `yaml:"google_key" mapstructure:"google_key"`
	IntervalMs   int     `yaml:"interval_ms" mapstructure:"interval_ms"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DefaultLat   float64 `yaml:"default_lat" mapstructure:"default_lat"`
	DefaultLon   float64 `yaml:"default_lon" mapstructure:"default_lon"`
	PostalRegion string  `yaml:"postal_region" mapstructure:"postal_region"`
}

// Interval returns the minimum spacing between outbound lookups.
func (g GeocodeConfig) Interval() time.Duration {
	return time.Duration(g.IntervalMs) * time.Millisecond
}

// CacheConfig configures the geocode cache.
type CacheConfig struct {
	Driver  string `yaml:"driver" mapstructure:"driver"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
	TTLDays int    `yaml:"ttl_days" mapstructure:"ttl_days"`
}

// TTL returns the cache entry lifetime. Zero keeps entries forever.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLDays) * 24 * time.Hour
}

// RankingConfig configures the results page.
type RankingConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// RetryConfig configures retries of external calls.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// WorkflowConfig configures step transitions.
type WorkflowConfig struct {
	AutoAdvance bool `yaml:"auto_advance" mapstructure:"auto_advance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" mapstructure:"cors_allowed_origins"`
	MaxUploadMB        int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLACEMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Accept the providers' conventional variables too.
	_ = v.BindEnv("openai.key", "PLACEMENT_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("anthropic.key", "PLACEMENT_ANTHROPIC_KEY", "ANTHROPIC_API_KEY")

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.transcription_model", "whisper-1")
	v.SetDefault("openai.timeout_secs", 300)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.extraction_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.explanation_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("anthropic.explanation_max_tokens", 200)
	v.SetDefault("anthropic.explanation_temperature", 0.5)
	v.SetDefault("catalog.source", "sheets")
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.url", "")
	v.SetDefault("catalog.sheet_id", "")
	v.SetDefault("catalog.worksheet", "Rochester")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("geocode.provider", "nominatim")
	v.SetDefault("geocode.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "assisted_living")
	v.SetDefault("geocode.google_key", "")
	v.SetDefault("geocode.interval_ms", 1000)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("geocode.default_lat", 43.1566)
	v.SetDefault("geocode.default_lon", -77.6088)
	v.SetDefault("geocode.postal_region", "NY")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.dsn", "")
	v.SetDefault("cache.ttl_days", 90)
	v.SetDefault("ranking.top_n", 5)
	v.SetDefault("retry.max_attempts", 1)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("workflow.auto_advance", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 25)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Modes: transcribe,
// extract, rank, run, serve. Offline runs skip credential checks.
func (c *Config) Validate(mode string, offline bool) error {
	var errs []string
	need := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, msg)
		}
	}

	credentials := !offline
	switch mode {
	case "transcribe":
		if credentials {
			need(c.OpenAI.Key != "", "openai.key is required")
		}
	case "extract":
		if credentials {
			need(c.Anthropic.Key != "", "anthropic.key is required")
		}
	case "rank":
		if credentials {
			c.validateCatalog(need)
		}
		c.validateRanking(need)
	case "run", "serve":
		if credentials {
			need(c.OpenAI.Key != "", "openai.key is required")
			need(c.Anthropic.Key != "", "anthropic.key is required")
			c.validateCatalog(need)
		}
		c.validateRanking(need)
		if mode == "serve" {
			need(c.Server.Port > 0, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Cache.Driver {
	case "", "memory", "none", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("cache.driver %q must be memory, sqlite, postgres or none", c.Cache.Driver))
	}
	if c.Cache.Driver == "postgres" {
		need(c.Cache.DSN != "", "cache.dsn is required for the postgres cache")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateCatalog(need func(bool, string)) {
	switch c.Catalog.Source {
	case "sheets":
		need(c.Catalog.SheetID != "", "catalog.sheet_id is required")
		need(c.Catalog.APIKey != "", "catalog.api_key is required")
	case "csv", "xlsx":
		need(c.Catalog.Path != "", "catalog.path is required")
	case "url":
		need(c.Catalog.URL != "", "catalog.url is required")
	default:
		need(false, fmt.Sprintf("catalog.source %q must be sheets, csv, xlsx or url", c.Catalog.Source))
	}
}

func (c *Config) validateRanking(need func(bool, string)) {
	need(c.Ranking.TopN > 0, "ranking.top_n must be > 0")
	need(c.Geocode.IntervalMs >= 0, "geocode.interval_ms must be >= 0")
	need(c.Geocode.DefaultLat >= -90 && c.Geocode.DefaultLat <= 90, "geocode.default_lat must be between -90 and 90")
	need(c.Geocode.DefaultLon >= -180 && c.Geocode.DefaultLon <= 180, "geocode.default_lon must be between -180 and 180")
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
