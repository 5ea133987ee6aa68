package caption

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEndToEnd(t *testing.T) {
	track := makeTrack(65, 16000, 0.2)

	inference := &fakeInference{
		transcribe: func(start, dur float64) (string, error) {
			// The last window fails and must be covered by placeholders.
			if start >= 60 {
				return "", fmt.Errorf("service down")
			}
			return fmt.Sprintf(`[{"text": "window at %.0f", "start": 0.0, "end": %.1f, "type": "speech"}]`, start, dur), nil
		},
		optimize: passthroughOptimize,
	}

	p := NewPipeline(inference, Options{ChunkSeconds: 30, Workers: 2})
	transcript, err := p.Generate(context.Background(), track)
	require.NoError(t, err)
	require.Len(t, transcript, 3)

	assert.Equal(t, "window at 0", transcript[0].Text)
	assert.Equal(t, 0.0, transcript[0].Start)
	assert.Equal(t, 30.0, transcript[0].End)

	assert.Equal(t, "window at 30", transcript[1].Text)
	assert.Equal(t, 30.0, transcript[1].Start)
	assert.Equal(t, 60.0, transcript[1].End)

	assert.Contains(t, transcript[2].Text, "Transcription unavailable")
	assert.Equal(t, 60.0, transcript[2].Start)
	assert.InDelta(t, 65.0, transcript[2].End, 1e-6)
}

func TestGenerateEmptyArrayReplyKeepsCoverage(t *testing.T) {
	inference := &fakeInference{
		transcribe: func(start, dur float64) (string, error) { return "[]", nil },
		optimize:   passthroughOptimize,
	}

	p := NewPipeline(inference, Options{ChunkSeconds: 30, Workers: 1})
	transcript, err := p.Generate(context.Background(), makeTrack(30, 16000, 0.2))
	require.NoError(t, err)

	require.NotEmpty(t, transcript)
	assert.Equal(t, 0.0, transcript[0].Start)
	assert.InDelta(t, 30.0, transcript[len(transcript)-1].End, 1e-6)
}

func TestGenerateEmptyTrack(t *testing.T) {
	p := NewPipeline(&fakeInference{}, Options{})
	transcript, err := p.Generate(context.Background(), makeTrack(0, 16000, 0))
	require.NoError(t, err)
	assert.Empty(t, transcript)
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(&fakeInference{optimize: passthroughOptimize}, Options{ChunkSeconds: 30})
	_, err := p.Generate(ctx, makeTrack(65, 16000, 0.2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateSavesDiagnostics(t *testing.T) {
	dir := t.TempDir()

	inference := &fakeInference{
		transcribe: func(start, dur float64) (string, error) {
			return `[{"text": "hi", "start": 0.0, "end": 10.0, "type": "speech"}]`, nil
		},
		optimize: passthroughOptimize,
	}

	p := NewPipeline(inference, Options{ChunkSeconds: 30, DiagnosticsDir: dir})
	_, err := p.Generate(context.Background(), makeTrack(10, 16000, 0.2))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "chunk_0.00_response.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"text": "hi"`)
}

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline(&fakeInference{}, Options{})
	assert.Equal(t, DefaultChunkSeconds, p.opts.ChunkSeconds)
	assert.Equal(t, 4, p.opts.Workers)
}
