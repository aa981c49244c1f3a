// Package geocode resolves free-text place queries to coordinates using
// Nominatim (primary) and Google (fallback).
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client geocodes place queries such as "Pittsford, NY" or "14618, NY".
type Client interface {
	// Geocode resolves a single query. A nil error with Matched=false
	// means the provider answered but found nothing.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Town      string  `json:"town,omitempty"`
	State     string  `json:"state,omitempty"`
	Source    string  `json:"source"` // "nominatim" or "google"
	Matched   bool    `json:"matched"`
}

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// DefaultInterval is the minimum spacing between outbound lookups.
const DefaultInterval = time.Second

// Option configures the geocoder.
type Option func(*geocoder)

// WithNominatimURL overrides the Nominatim base URL.
func WithNominatimURL(u string) Option {
	return func(g *geocoder) {
		g.nominatimURL = strings.TrimRight(u, "/")
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim, which rejects
// anonymous clients.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithGoogleAPIKey enables Google Geocoding API as a fallback.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for both providers.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithInterval sets the fixed delay between successive outbound lookups.
func WithInterval(d time.Duration) Option {
	return func(g *geocoder) {
		if d > 0 {
			g.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLimiter replaces the shared limiter. Tests pass rate.Inf.
func WithLimiter(l *rate.Limiter) Option {
	return func(g *geocoder) {
		g.limiter = l
	}
}

type geocoder struct {
	httpClient   *http.Client
	nominatimURL string
	userAgent    string
	googleKey    string
	limiter      *rate.Limiter
}

// NewClient creates a geocoding Client. Every outbound request of either
// provider waits on the same limiter.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		nominatimURL: DefaultNominatimURL,
		userAgent:    "placement-cli",
		limiter:      rate.NewLimiter(rate.Every(DefaultInterval), 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode tries Nominatim first, then Google if configured. An error is
// returned only when no provider produced an answer.
func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Matched: false}, nil
	}

	result, nomErr := g.geocodeNominatim(ctx, query)
	if nomErr == nil && result.Matched {
		return result, nil
	}
	if nomErr != nil {
		zap.L().Debug("geocode: nominatim failed", zap.String("query", query), zap.Error(nomErr))
	}

	if g.googleKey != "" {
		googleResult, googleErr := g.geocodeGoogle(ctx, query)
		if googleErr == nil {
			return googleResult, nil
		}
		zap.L().Debug("geocode: google failed", zap.String("query", query), zap.Error(googleErr))
		if nomErr != nil {
			return nil, googleErr
		}
	}

	if nomErr != nil {
		return nil, nomErr
	}
	return &Result{Matched: false, Source: "nominatim"}, nil
}
