// Package transcribe converts recorded consultation audio to text using the
// OpenAI transcription API.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
)

// DefaultModel is the default transcription model.
const DefaultModel = oai.AudioModelWhisper1

// ErrEmptyAudio is the cause of an *Error for a zero-length recording.
var ErrEmptyAudio = errors.New("empty audio")

// Transcriber turns audio bytes into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, ext string) (string, error)
}

// Error reports a failed transcription. Every failure of Client.Transcribe
// is an *Error.
type Error struct {
	Ext string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transcribe %s audio: %v", e.Ext, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SupportedFormats lists the accepted audio file extensions.
var SupportedFormats = []string{"wav", "mp3", "m4a"}

var contentTypes = map[string]string{
	"wav":  "audio/wav",
	"mp3":  "audio/mpeg",
	"m4a":  "audio/mp4",
	"mp4":  "audio/mp4",
	"mpeg": "audio/mpeg",
	"mpga": "audio/mpeg",
	"ogg":  "audio/ogg",
	"webm": "audio/webm",
	"flac": "audio/flac",
}

// NormalizeExt lowercases ext and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Supported reports whether ext is an accepted audio format.
func Supported(ext string) bool {
	ext = NormalizeExt(ext)
	for _, s := range SupportedFormats {
		if s == ext {
			return true
		}
	}
	return false
}

type config struct {
	baseURL string
	model   string
	timeout time.Duration
	hc      *http.Client
}

// Option is a functional option for Client.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.hc = hc
	}
}

var _ Transcriber = (*Client)(nil)

// Client implements Transcriber using openai-go.
type Client struct {
	client oai.Client
	model  string
}

// New constructs a Client. The SDK's own retries are disabled; a failed
// transcription is re-attempted by the operator.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, &Error{Err: fmt.Errorf("openai api key must not be empty")}
	}

	cfg := &config{model: DefaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	switch {
	case cfg.hc != nil:
		reqOpts = append(reqOpts, option.WithHTTPClient(cfg.hc))
	case cfg.timeout > 0:
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: cfg.timeout}))
	}

	return &Client{client: oai.NewClient(reqOpts...), model: cfg.model}, nil
}

// Transcribe implements Transcriber.
func (c *Client) Transcribe(ctx context.Context, audio []byte, ext string) (string, error) {
	ext = NormalizeExt(ext)
	if len(audio) == 0 {
		return "", &Error{Ext: ext, Err: ErrEmptyAudio}
	}

	ctype, ok := contentTypes[ext]
	if !ok {
		ctype = "application/octet-stream"
	}

	start := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, oai.AudioTranscriptionNewParams{
		File:  oai.File(bytes.NewReader(audio), "consultation."+ext, ctype),
		Model: oai.AudioModel(c.model),
	})
	if err != nil {
		return "", &Error{Ext: ext, Err: err}
	}

	text := strings.TrimSpace(resp.Text)
	zap.L().Debug("transcription complete",
		zap.String("model", c.model),
		zap.Int("audio_bytes", len(audio)),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}
