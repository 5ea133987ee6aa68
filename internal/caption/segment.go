package caption

import "context"

// Kind classifies a segment's content.
type Kind string

const (
	KindSpeech  Kind = "speech"
	KindMusic   Kind = "music"
	KindSound   Kind = "sound"
	KindSilence Kind = "silence"
)

// ParseKind maps a service-provided type string to a Kind. Unknown or
// empty values default to speech.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindMusic, KindSound, KindSilence:
		return Kind(s)
	default:
		return KindSpeech
	}
}

// Segment is one timed caption cue. Start and End are seconds from the
// track origin, never window-relative.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Kind  Kind    `json:"type"`
}

// Transcript is the ordered, full-coverage segment sequence for a track.
type Transcript []Segment

// GapLabel is the service's classification of a gap slice.
type GapLabel struct {
	Kind Kind
	Text string
}

// Inference is the external multimodal service used for transcription,
// gap classification and timing optimization. TranscribeWindow and
// OptimizeTiming return the raw response text; parsing and fallback
// policy live in this package so every caller degrades the same way.
type Inference interface {
	TranscribeWindow(ctx context.Context, audioWAV []byte, startSec, durationSec float64) (string, error)
	ClassifyGap(ctx context.Context, audioWAV []byte, startSec, endSec float64) (GapLabel, error)
	OptimizeTiming(ctx context.Context, segmentsJSON string) (string, error)
}
