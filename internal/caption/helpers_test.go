package caption

import (
	"context"
	"math"

	"github.com/caption-forge/backend/internal/audio"
)

// fakeInference lets each test script the service's behavior per call.
type fakeInference struct {
	transcribe func(startSec, durationSec float64) (string, error)
	classify   func(startSec, endSec float64) (GapLabel, error)
	optimize   func(segmentsJSON string) (string, error)
}

func (f *fakeInference) TranscribeWindow(ctx context.Context, audioWAV []byte, startSec, durationSec float64) (string, error) {
	if f.transcribe == nil {
		return "[]", nil
	}
	return f.transcribe(startSec, durationSec)
}

func (f *fakeInference) ClassifyGap(ctx context.Context, audioWAV []byte, startSec, endSec float64) (GapLabel, error) {
	if f.classify == nil {
		return GapLabel{Kind: KindSound, Text: "something"}, nil
	}
	return f.classify(startSec, endSec)
}

func (f *fakeInference) OptimizeTiming(ctx context.Context, segmentsJSON string) (string, error) {
	if f.optimize == nil {
		return "", nil
	}
	return f.optimize(segmentsJSON)
}

// passthroughOptimize keeps the optimizer out of the way: the reply
// echoes the request, which validates and reproduces the input.
func passthroughOptimize(segmentsJSON string) (string, error) {
	return segmentsJSON, nil
}

// makeTrack builds a mono track of the given duration filled with a
// constant amplitude. amplitude 0 is digital silence.
func makeTrack(durationSec float64, sampleRate int, amplitude float64) *audio.Track {
	n := int(durationSec * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude
	}
	return &audio.Track{SampleRate: sampleRate, Samples: samples}
}

// loudRegion overwrites [startSec, endSec) with the given amplitude.
func loudRegion(t *audio.Track, startSec, endSec, amplitude float64) {
	start := int(startSec * float64(t.SampleRate))
	end := int(math.Min(endSec*float64(t.SampleRate), float64(len(t.Samples))))
	for i := start; i < end; i++ {
		t.Samples[i] = amplitude
	}
}
