package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caption-forge/backend/internal/auth"
	"github.com/caption-forge/backend/internal/caption"
	"github.com/caption-forge/backend/internal/config"
	"github.com/caption-forge/backend/internal/db"
	"github.com/caption-forge/backend/internal/job"
)

type noopInference struct{}

func (noopInference) TranscribeWindow(ctx context.Context, audioWAV []byte, startSec, durationSec float64) (string, error) {
	return "[]", nil
}

func (noopInference) ClassifyGap(ctx context.Context, audioWAV []byte, startSec, endSec float64) (caption.GapLabel, error) {
	return caption.GapLabel{}, nil
}

func (noopInference) OptimizeTiming(ctx context.Context, segmentsJSON string) (string, error) {
	return segmentsJSON, nil
}

type testEnv struct {
	srv      *httptest.Server
	mediaDir string
}

func newTestEnv(t *testing.T) *testEnv {
	dir := t.TempDir()
	mediaDir := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0755))

	database, err := db.NewSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.EnsureAdmin("admin", "secret"))

	queue := job.NewJobQueue(database.DB())
	t.Cleanup(queue.Stop)

	svc := caption.NewService(noopInference{}, queue, filepath.Join(dir, "captions"), 30, 1)
	jwtService := auth.NewJWTService("test-secret")
	cfg := &config.Config{MediaPath: mediaDir, CORSOrigins: []string{"*"}}

	srv := httptest.NewServer(NewRouter(database, jwtService, cfg, queue, svc))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, mediaDir: mediaDir}
}

func newTestServer(t *testing.T) *httptest.Server {
	return newTestEnv(t).srv
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"secret"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func authedRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json",
		strings.NewReader(`{"username":"admin","password":"wrong"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGenerateValidation(t *testing.T) {
	env := newTestEnv(t)
	srv := env.srv
	token := login(t, srv)

	resp := authedRequest(t, "POST", srv.URL+"/api/caption/generate", token,
		`{"source": "clip.mp4", "format": "ass"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = authedRequest(t, "POST", srv.URL+"/api/caption/generate", token,
		`{"format": "srt"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateRejectsSourceOutsideMediaPath(t *testing.T) {
	env := newTestEnv(t)
	token := login(t, env.srv)

	resp := authedRequest(t, "POST", env.srv.URL+"/api/caption/generate", token,
		`{"source": "/etc/passwd", "format": "srt"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = authedRequest(t, "POST", env.srv.URL+"/api/caption/generate", token,
		`{"source": "../outside.mp4", "format": "srt"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = authedRequest(t, "POST", env.srv.URL+"/api/caption/mux", token,
		`{"source": "/etc/passwd", "subtitle_path": "/tmp/x.srt"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateEnqueuesJob(t *testing.T) {
	env := newTestEnv(t)
	srv := env.srv
	token := login(t, srv)

	// Relative sources resolve against the media library.
	resp := authedRequest(t, "POST", srv.URL+"/api/caption/generate", token,
		`{"source": "clip.mp4", "format": "vtt"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var j job.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&j))
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, job.JobCaption, j.Type)
	assert.Equal(t, filepath.Join(env.mediaDir, "clip.mp4"), j.Source)

	// The job is visible through the jobs API.
	resp = authedRequest(t, "GET", srv.URL+"/api/jobs/"+j.ID, token, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGenerateUsesStoredDefaults(t *testing.T) {
	env := newTestEnv(t)
	token := login(t, env.srv)

	resp := authedRequest(t, "PUT", env.srv.URL+"/api/settings", token,
		`{"default_format": "vtt", "chunk_seconds": "15"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = authedRequest(t, "POST", env.srv.URL+"/api/caption/generate", token,
		`{"source": "clip.mp4"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var j job.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&j))

	var params job.CaptionParams
	require.NoError(t, json.Unmarshal(j.Params, &params))
	assert.Equal(t, "vtt", params.Format)
	assert.Equal(t, 15.0, params.ChunkSeconds)

	// Explicit request values still win over stored defaults.
	resp = authedRequest(t, "POST", env.srv.URL+"/api/caption/generate", token,
		`{"source": "clip.mp4", "format": "srt", "chunk_seconds": 20}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&j))
	require.NoError(t, json.Unmarshal(j.Params, &params))
	assert.Equal(t, "srt", params.Format)
	assert.Equal(t, 20.0, params.ChunkSeconds)
}

func TestSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	resp := authedRequest(t, "PUT", srv.URL+"/api/settings", token,
		`{"gemini_model": "gemini-2.5-pro", "bogus_key": "ignored"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = authedRequest(t, "GET", srv.URL+"/api/settings", token, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var settings []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&settings))

	byKey := map[string]string{}
	for _, s := range settings {
		byKey[s.Key] = s.Value
	}
	assert.Equal(t, "gemini-2.5-pro", byKey["gemini_model"])
	assert.NotContains(t, byKey, "bogus_key")
}
