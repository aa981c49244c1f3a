// Package sheets reads worksheet values from the Google Sheets API v4.
package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://sheets.googleapis.com/v4"

// Client reads spreadsheet values.
type Client interface {
	// Values returns every row of the named worksheet, first row first.
	Values(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error)
}

// valueRange is the response from spreadsheets.values.get.
type valueRange struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Sheets API client authenticated by API key.
// The spreadsheet must be shared for link access.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Values(ctx context.Context, spreadsheetID, worksheet string) ([][]string, error) {
	if spreadsheetID == "" {
		return nil, eris.New("sheets: spreadsheet id is required")
	}

	reqURL := c.baseURL + "/spreadsheets/" + url.PathEscape(spreadsheetID) +
		"/values/" + url.PathEscape(worksheet) + "?" + url.Values{
		"key":               {c.apiKey},
		"majorDimension":    {"ROWS"},
		"valueRenderOption": {"FORMATTED_VALUE"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: read response")
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, eris.Errorf("sheets: %s (%d): %s", apiErr.Error.Status, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, eris.Errorf("sheets: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result valueRange
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "sheets: unmarshal response")
	}
	return result.Values, nil
}
