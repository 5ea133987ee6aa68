package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
)

// placeholderSeconds is the duration of each synthesized segment when a
// window's transcription fails outright.
const placeholderSeconds = 5.0

// wireSegment mirrors the JSON objects the service is asked to return.
// Pointer fields distinguish missing keys from zero values.
type wireSegment struct {
	Text  *string  `json:"text"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Kind  *string  `json:"type"`
}

// extractArray pulls the first embedded JSON array out of a free-form
// response. Extraction is best-effort substring scanning, not schema
// validation.
func extractArray(raw string) ([]wireSegment, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	var segs []wireSegment
	if err := json.Unmarshal([]byte(raw[start:end+1]), &segs); err != nil {
		return nil, false
	}
	return segs, true
}

// transcribeWindow converts one window into absolute-timed segments.
// It never fails: a service error or unparseable reply degrades to
// deterministic fallback segments, so a single window can never leave a
// hole in the assembled transcript.
func (p *Pipeline) transcribeWindow(ctx context.Context, win Window) []Segment {
	payload, err := win.Clip.EncodeWAV()
	if err != nil {
		log.Warn().Err(err).Msgf("[caption] window %d: encode failed, using placeholders", win.Index)
		return placeholderSegments(win)
	}

	raw, err := p.inference.TranscribeWindow(ctx, payload, win.Start, win.Duration())
	if err != nil {
		log.Warn().Err(err).Msgf("[caption] window %d (%.2fs-%.2fs): transcription failed, using placeholders",
			win.Index, win.Start, win.End)
		p.saveDiagnostic(win, "error.txt", fmt.Sprintf("error at %.2fs: %v", win.Start, err))
		return placeholderSegments(win)
	}
	p.saveDiagnostic(win, "response.json", raw)

	return parseWindowResponse(raw, win)
}

// parseWindowResponse extracts the segment array from the raw response
// and shifts window-relative times to track-absolute. If no array can
// be extracted, or the array is empty, the whole response text becomes
// a single speech segment spanning the window so the window never
// drops out of the transcript.
func parseWindowResponse(raw string, win Window) []Segment {
	wire, ok := extractArray(raw)
	if !ok || len(wire) == 0 {
		log.Warn().Msgf("[caption] window %d: no usable JSON array in response, keeping full text as one segment", win.Index)
		return []Segment{{
			Text:  strings.TrimSpace(raw),
			Start: win.Start,
			End:   win.End,
			Kind:  KindSpeech,
		}}
	}

	segments := make([]Segment, 0, len(wire))
	for _, ws := range wire {
		start := win.Start
		if ws.Start != nil {
			start = win.Start + *ws.Start
		}
		end := start + placeholderSeconds
		if ws.End != nil {
			end = win.Start + *ws.End
		}
		text := "[Transcription error]"
		if ws.Text != nil {
			text = *ws.Text
		}
		kind := KindSpeech
		if ws.Kind != nil {
			kind = ParseKind(*ws.Kind)
		}
		segments = append(segments, Segment{Text: text, Start: start, End: end, Kind: kind})
	}
	return segments
}

// placeholderSegments covers the window with evenly spaced "unavailable"
// markers, the last one truncated to the window end.
func placeholderSegments(win Window) []Segment {
	count := int(math.Ceil(win.Duration() / placeholderSeconds))
	if count < 1 {
		count = 1
	}

	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := win.Start + float64(i)*placeholderSeconds
		end := math.Min(start+placeholderSeconds, win.End)
		segments = append(segments, Segment{
			Text:  fmt.Sprintf("[Transcription unavailable %.2fs - %.2fs]", start, end),
			Start: start,
			End:   end,
			Kind:  KindSpeech,
		})
	}
	return segments
}
