package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/caption-forge/backend/internal/caption"
)

const defaultAPIBase = "https://generativelanguage.googleapis.com/v1beta/models"

// ModelResolver returns the current Gemini model from settings.
type ModelResolver func() string

// KeyResolver returns the current API key from settings.
type KeyResolver func() string

// Client calls the Gemini generateContent API for audio transcription,
// gap classification and timing optimization. It implements
// caption.Inference. Key and model are resolved per call so settings
// changes take effect without a restart.
type Client struct {
	BaseURL       string
	keyResolver   KeyResolver
	modelResolver ModelResolver
	httpClient    *http.Client
}

func NewClient(keyResolver KeyResolver, modelResolver ModelResolver) *Client {
	return &Client{
		BaseURL:       defaultAPIBase,
		keyResolver:   keyResolver,
		modelResolver: modelResolver,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// StaticKey wraps a fixed API key as a resolver, for CLI use.
func StaticKey(apiKey string) KeyResolver {
	return func() string { return apiKey }
}

func (c *Client) currentKey() string {
	if c.keyResolver != nil {
		return c.keyResolver()
	}
	return ""
}

func (c *Client) currentModel() string {
	if c.modelResolver != nil {
		if m := c.modelResolver(); m != "" {
			return m
		}
	}
	return "gemini-2.0-flash"
}

// TranscribeWindow submits one window's audio with the transcription
// prompt and returns the raw response text. The caller owns parsing and
// fallback policy.
func (c *Client) TranscribeWindow(ctx context.Context, audioWAV []byte, startSec, durationSec float64) (string, error) {
	if c.currentKey() == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	parts := []map[string]interface{}{
		audioPart(audioWAV),
		{"text": fmt.Sprintf(transcribePrompt, startSec, durationSec)},
	}

	log.Info().Msgf("[gemini] transcribing window at %.2fs (%.2fs long) with %s", startSec, durationSec, c.currentModel())
	return c.generateContent(ctx, parts, false)
}

// ClassifyGap asks the service to label a gap slice as music, sound or
// silence with a short description.
func (c *Client) ClassifyGap(ctx context.Context, audioWAV []byte, startSec, endSec float64) (caption.GapLabel, error) {
	if c.currentKey() == "" {
		return caption.GapLabel{}, fmt.Errorf("Gemini API key not configured")
	}

	parts := []map[string]interface{}{
		audioPart(audioWAV),
		{"text": fmt.Sprintf(classifyPrompt, startSec, endSec)},
	}

	log.Info().Msgf("[gemini] classifying gap %.2fs-%.2fs", startSec, endSec)
	raw, err := c.generateContent(ctx, parts, false)
	if err != nil {
		return caption.GapLabel{}, err
	}

	obj, ok := extractObject(raw)
	if !ok {
		return caption.GapLabel{}, fmt.Errorf("no JSON object in gap response: %s", raw)
	}

	var label struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(obj, &label); err != nil {
		return caption.GapLabel{}, fmt.Errorf("parse gap label: %w", err)
	}
	if label.Text == "" {
		return caption.GapLabel{}, fmt.Errorf("empty gap description")
	}

	return caption.GapLabel{Kind: caption.ParseKind(label.Type), Text: label.Text}, nil
}

// OptimizeTiming submits the serialized segment list for the global
// timing pass and returns the raw response text.
func (c *Client) OptimizeTiming(ctx context.Context, segmentsJSON string) (string, error) {
	if c.currentKey() == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}

	parts := []map[string]interface{}{
		{"text": fmt.Sprintf(optimizePrompt, segmentsJSON)},
	}

	log.Info().Msgf("[gemini] optimizing caption timing with %s", c.currentModel())
	return c.generateContent(ctx, parts, true)
}

// generateContent performs one generateContent call and returns the
// first candidate's text.
func (c *Client) generateContent(ctx context.Context, parts []map[string]interface{}, wantJSON bool) (string, error) {
	generationConfig := map[string]interface{}{
		"temperature": 0.3,
	}
	if wantJSON {
		generationConfig["responseMimeType"] = "application/json"
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": parts},
		},
		"generationConfig": generationConfig,
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_CIVIC_INTEGRITY", "threshold": "BLOCK_NONE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.BaseURL, c.currentModel())
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.currentKey())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("Gemini API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		log.Warn().Msgf("[gemini] empty response body: %s", string(body))
		if geminiResp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("Gemini blocked: %s", geminiResp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("empty Gemini response")
	}

	if fr := geminiResp.Candidates[0].FinishReason; fr != "" && fr != "STOP" {
		log.Warn().Msgf("[gemini] finishReason=%s", fr)
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

func audioPart(audioWAV []byte) map[string]interface{} {
	return map[string]interface{}{
		"inline_data": map[string]string{
			"mime_type": "audio/wav",
			"data":      base64.StdEncoding.EncodeToString(audioWAV),
		},
	}
}

// extractObject pulls the first embedded JSON object out of a free-form
// response.
func extractObject(raw string) (json.RawMessage, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	candidate := raw[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return nil, false
	}
	return json.RawMessage(candidate), true
}
