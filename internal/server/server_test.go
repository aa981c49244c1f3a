package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/placement-cli/internal/catalog"
	"github.com/sells-group/placement-cli/internal/explain"
	"github.com/sells-group/placement-cli/internal/extract"
	"github.com/sells-group/placement-cli/internal/ranking"
	"github.com/sells-group/placement-cli/internal/workflow"
)

func offlineFactory() *workflow.Controller {
	llm := &workflow.StubAnthropicClient{}
	geo := ranking.NewGeoRanker(&workflow.StubGeocoder{}, nil, "NY")
	return workflow.New(workflow.Deps{
		Transcriber: &workflow.StubTranscriber{},
		Extractor:   extract.New(llm, "", 0),
		Ranker:      ranking.NewRanker(&catalog.StaticSource{Data: workflow.SampleCatalog()}, geo),
		Explainer:   explain.New(llm),
	}, workflow.Options{AutoAdvance: true})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(offlineFactory, Options{CORSAllowedOrigins: []string{"https://intake.example.com"}}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeView(t *testing.T, resp *http.Response) workflow.View {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var v workflow.View
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func post(t *testing.T, url, ctype string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(url, ctype, bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func createSession(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := post(t, srv.URL+"/api/v1/sessions", "application/json", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	v := decodeView(t, resp)
	require.NotEmpty(t, v.ID)
	assert.Equal(t, workflow.StepUpload, v.Step)
	return v.ID
}

func uploadAudio(t *testing.T, url, name string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return post(t, url, mw.FormDataContentType(), buf.Bytes())
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/v1/sessions/" + id

	resp := post(t, base+"/run", "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "run without audio")
	resp.Body.Close()

	resp = uploadAudio(t, base+"/audio", "call.mp3", []byte("fake audio"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := decodeView(t, resp)
	assert.Equal(t, "call.mp3", v.AudioName)

	resp = post(t, base+"/confirm", "application/json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, workflow.StepTranscribe, decodeView(t, resp).Step)

	resp = post(t, base+"/run", "application/json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, resp)
	assert.Equal(t, workflow.StepPreferences, v.Step)
	assert.Equal(t, workflow.SampleTranscript, v.Transcript)

	resp = post(t, base+"/run", "application/json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, resp)
	assert.Equal(t, workflow.StepRank, v.Step)
	require.NotNil(t, v.Preferences)

	req, err := http.NewRequest(http.MethodPatch, base+"/preferences", strings.NewReader(`{"max_budget": 4500}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, resp)
	assert.InDelta(t, 4500, *v.Preferences.MaxBudget, 0.001)
	assert.True(t, v.Extraction.Amended)

	resp = post(t, base+"/run?all=true", "application/json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, resp)
	assert.Equal(t, workflow.StepResults, v.Step)
	require.NotNil(t, v.Results)
	require.NotNil(t, v.Presentation)
	for _, c := range v.Results.Communities {
		require.NotNil(t, c.MonthlyFee)
		assert.LessOrEqual(t, *c.MonthlyFee, 4500.0)
	}

	resp = post(t, base+"/confirm", "application/json", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(base + "/export.csv?tier=1")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "priority1_Margaret_Hill.csv")
	rows, err := csv.NewReader(resp.Body).ReadAll()
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "Type of Service", rows[0][0])

	resp, err = http.Get(base + "/export.xlsx")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "matches_Margaret_Hill.xlsx")
	resp.Body.Close()

	resp = post(t, base+"/reset", "application/json", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v = decodeView(t, resp)
	assert.Equal(t, id, v.ID)
	assert.Equal(t, workflow.StepUpload, v.Step)
	assert.Nil(t, v.Results)
	assert.Empty(t, v.Transcript)
}

func TestExportBeforeResults(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	resp, err := http.Get(srv.URL + "/api/v1/sessions/" + id + "/export.csv")
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := srv.URL + "/api/v1/sessions/" + id

	resp := uploadAudio(t, base+"/audio", "notes.txt", []byte("text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = post(t, base+"/audio", "application/json", []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/sessions/does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestDeleteSession(t *testing.T) {
	s := New(offlineFactory, Options{})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	id := createSession(t, srv)
	assert.Equal(t, 1, s.Len())

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/v1/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 0, s.Len())
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://intake.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://intake.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
