package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

type nominatimPlace struct {
	Lat     string           `json:"lat"`
	Lon     string           `json:"lon"`
	Address nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	City       string `json:"city"`
	Town       string `json:"town"`
	Village    string `json:"village"`
	Hamlet     string `json:"hamlet"`
	Suburb     string `json:"suburb"`
	State      string `json:"state"`
	StateISO   string `json:"ISO3166-2-lvl4"`
	Postcode   string `json:"postcode"`
	CountryISO string `json:"country_code"`
}

// locality returns the most specific populated-place name.
func (a nominatimAddress) locality() string {
	for _, s := range []string{a.City, a.Town, a.Village, a.Hamlet, a.Suburb} {
		if s != "" {
			return s
		}
	}
	return ""
}

// state prefers the ISO 3166-2 subdivision code ("US-NY" → "NY").
func (a nominatimAddress) state() string {
	if _, code, ok := strings.Cut(a.StateISO, "-"); ok && code != "" {
		return code
	}
	return a.State
}

// geocodeNominatim resolves query via the Nominatim search endpoint.
func (g *geocoder) geocodeNominatim(ctx context.Context, query string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}
	reqURL := g.nominatimURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim latitude %q", p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: nominatim longitude %q", p.Lon)
	}

	return &Result{
		Latitude:  lat,
		Longitude: lon,
		Town:      p.Address.locality(),
		State:     p.Address.state(),
		Source:    "nominatim",
		Matched:   true,
	}, nil
}
