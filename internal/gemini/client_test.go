package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caption-forge/backend/internal/caption"
)

func candidateResponse(text string) string {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(StaticKey("test-key"), func() string { return "test-model" })
	c.BaseURL = srv.URL
	return c
}

func TestTranscribeWindow(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(candidateResponse(`[{"text":"hello","start":0,"end":2,"type":"speech"}]`)))
	})

	raw, err := c.TranscribeWindow(context.Background(), []byte("RIFFfake"), 30, 30)
	require.NoError(t, err)
	assert.Contains(t, raw, `"hello"`)

	assert.Equal(t, "/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	// Request carries the audio as inline base64 plus the prompt text.
	contents := gotBody["contents"].([]interface{})
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(map[string]interface{}), "inline_data")
	assert.Contains(t, parts[1].(map[string]interface{})["text"], "30.00")
}

func TestTranscribeWindowRequiresKey(t *testing.T) {
	c := NewClient(StaticKey(""), nil)
	_, err := c.TranscribeWindow(context.Background(), nil, 0, 30)
	assert.ErrorContains(t, err, "API key")

	c = NewClient(nil, nil)
	_, err = c.TranscribeWindow(context.Background(), nil, 0, 30)
	assert.ErrorContains(t, err, "API key")
}

func TestKeyResolvedPerCall(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		w.Write([]byte(candidateResponse("[]")))
	}))
	t.Cleanup(srv.Close)

	// The key saved after client construction is picked up on the next
	// call, no restart needed.
	key := ""
	c := NewClient(func() string { return key }, func() string { return "test-model" })
	c.BaseURL = srv.URL

	_, err := c.TranscribeWindow(context.Background(), nil, 0, 30)
	assert.ErrorContains(t, err, "API key")

	key = "fresh-key"
	_, err = c.TranscribeWindow(context.Background(), nil, 0, 30)
	require.NoError(t, err)
	assert.Equal(t, "fresh-key", gotKey)
}

func TestGenerateContentErrorStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := c.TranscribeWindow(context.Background(), nil, 0, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGenerateContentBlocked(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": [], "promptFeedback": {"blockReason": "SAFETY"}}`))
	})

	_, err := c.TranscribeWindow(context.Background(), nil, 0, 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestClassifyGap(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(`Here you go: {"type": "music", "text": "Soft piano"}`)))
	})

	label, err := c.ClassifyGap(context.Background(), []byte("RIFFfake"), 10, 14)
	require.NoError(t, err)
	assert.Equal(t, caption.GapLabel{Kind: caption.KindMusic, Text: "Soft piano"}, label)
}

func TestClassifyGapEmptyText(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(`{"type": "sound", "text": ""}`)))
	})

	_, err := c.ClassifyGap(context.Background(), nil, 10, 14)
	assert.ErrorContains(t, err, "empty gap description")
}

func TestOptimizeTimingRequestsJSON(t *testing.T) {
	var gotBody map[string]interface{}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(candidateResponse("[]")))
	})

	raw, err := c.OptimizeTiming(context.Background(), `[{"text":"a","start":0,"end":1,"type":"speech"}]`)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	genCfg := gotBody["generationConfig"].(map[string]interface{})
	assert.Equal(t, "application/json", genCfg["responseMimeType"])
}

func TestCurrentModelFallback(t *testing.T) {
	c := NewClient(StaticKey("key"), nil)
	assert.Equal(t, "gemini-2.0-flash", c.currentModel())

	c = NewClient(StaticKey("key"), func() string { return "" })
	assert.Equal(t, "gemini-2.0-flash", c.currentModel())

	c = NewClient(StaticKey("key"), func() string { return "gemini-2.5-pro" })
	assert.Equal(t, "gemini-2.5-pro", c.currentModel())
}

func TestExtractObject(t *testing.T) {
	obj, ok := extractObject(`prefix {"type": "music", "text": "x"} suffix`)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(obj), "{"))

	_, ok = extractObject("no object")
	assert.False(t, ok)

	_, ok = extractObject("{not valid json}")
	assert.False(t, ok)
}
