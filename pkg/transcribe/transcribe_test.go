package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/audio/transcriptions")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close() //nolint:errcheck
		assert.Equal(t, "consultation.mp3", hdr.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "ID3fake", string(data))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"text": "  My mother needs memory care.  "}) //nolint:errcheck
	}))
	defer ts.Close()

	c, err := New("test-key", WithBaseURL(ts.URL))
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), []byte("ID3fake"), ".MP3")
	require.NoError(t, err)
	assert.Equal(t, "My mother needs memory care.", text)
}

func TestTranscribe_ServiceError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`)
	}))
	defer ts.Close()

	c, err := New("bad-key", WithBaseURL(ts.URL))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), []byte("RIFF"), "wav")
	require.Error(t, err)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "wav", te.Ext)
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	c, err := New("k", WithBaseURL("http://127.0.0.1:1"))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), nil, "wav")
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Contains(t, err.Error(), "empty audio")
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(".WAV"))
	assert.True(t, Supported("m4a"))
	assert.False(t, Supported("ogg"))
	assert.Equal(t, "mp3", NormalizeExt(" .Mp3"))
}
