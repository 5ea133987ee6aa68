package caption

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
)

const (
	// gapThreshold is the minimum uncovered span worth inspecting.
	gapThreshold = 1.0
	// silenceThresholdDB separates silence from audible content (dBFS).
	silenceThresholdDB = -50.0
	// forceIncludeSeconds: silent gaps longer than this still get a cue,
	// since prolonged silence is meaningful to viewers.
	forceIncludeSeconds = 3.0
)

// fillGaps inspects the spans of the window not covered by any draft
// segment and synthesizes cues for the meaningful ones. Gap analysis is
// best-effort enrichment: classification failures degrade to a
// deterministic heuristic, never to an error.
func (p *Pipeline) fillGaps(ctx context.Context, win Window, drafts []Segment) []Segment {
	if len(drafts) == 0 {
		return nil
	}

	sorted := append([]Segment(nil), drafts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	filled := make([]Segment, 0, len(sorted)+2)

	// Leading gap between the window start and the first segment.
	if sorted[0].Start-win.Start > gapThreshold {
		if seg, ok := p.analyzeGap(ctx, win, win.Start, sorted[0].Start); ok {
			filled = append(filled, seg)
		}
	}
	filled = append(filled, sorted[0])
	cursor := sorted[0].End

	for _, cur := range sorted[1:] {
		if cur.Start-cursor > gapThreshold {
			if seg, ok := p.analyzeGap(ctx, win, cursor, cur.Start); ok {
				filled = append(filled, seg)
			}
		}
		filled = append(filled, cur)
		cursor = cur.End
	}

	// Trailing gap up to the window end.
	if win.End-cursor > gapThreshold {
		if seg, ok := p.analyzeGap(ctx, win, cursor, win.End); ok {
			filled = append(filled, seg)
		}
	}

	return filled
}

// analyzeGap classifies one uncovered span. Quiet gaps at or under the
// force-include bound are judged inconsequential and dropped. Everything
// else is classified by the inference service, falling back to a
// loudness-based cue when the service cannot be reached.
func (p *Pipeline) analyzeGap(ctx context.Context, win Window, startSec, endSec float64) (Segment, bool) {
	clip := win.Clip.Slice(startSec-win.Start, endSec-win.Start)
	quiet := clip.LoudnessDB() < silenceThresholdDB

	if quiet && endSec-startSec <= forceIncludeSeconds {
		return Segment{}, false
	}

	if payload, err := clip.EncodeWAV(); err == nil {
		label, cerr := p.inference.ClassifyGap(ctx, payload, startSec, endSec)
		if cerr == nil && label.Text != "" {
			switch label.Kind {
			case KindMusic, KindSound, KindSilence:
				return Segment{Text: label.Text, Start: startSec, End: endSec, Kind: label.Kind}, true
			}
		}
		if cerr != nil {
			log.Warn().Err(cerr).Msgf("[caption] gap %.2fs-%.2fs: classification failed, using heuristic", startSec, endSec)
		}
	}

	if quiet {
		return Segment{Text: "[Silence]", Start: startSec, End: endSec, Kind: KindSilence}, true
	}
	return Segment{Text: "[Background sounds]", Start: startSec, End: endSec, Kind: KindSound}, true
}
