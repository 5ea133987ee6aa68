package caption

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rs/zerolog/log"
)

// Optimize runs the single global timing pass over the assembled
// transcript. The service is asked to adjust boundaries for natural
// speech breaks and minimum-readable non-speech cues without touching
// text or ordering. The reply replaces the transcript only when it
// validates; on any failure the pre-optimization (sorted) transcript is
// returned unchanged.
func (p *Pipeline) Optimize(ctx context.Context, t Transcript) Transcript {
	if len(t) == 0 {
		return t
	}

	sorted := append(Transcript(nil), t...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	payload, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return sorted
	}

	raw, err := p.inference.OptimizeTiming(ctx, string(payload))
	if err != nil {
		log.Warn().Err(err).Msgf("[caption] timing optimization failed, keeping original %d segments", len(sorted))
		return sorted
	}

	optimized, ok := reconcileOptimized(raw)
	if !ok {
		log.Warn().Msgf("[caption] invalid optimizer response, keeping original %d segments", len(sorted))
		return sorted
	}

	log.Info().Msgf("[caption] optimized timing for %d segments", len(optimized))
	return optimized
}

// reconcileOptimized validates the optimizer reply: a non-empty array
// where every element carries all four fields. Anything less rejects
// the whole reply.
func reconcileOptimized(raw string) (Transcript, bool) {
	wire, ok := extractArray(raw)
	if !ok || len(wire) == 0 {
		return nil, false
	}

	out := make(Transcript, 0, len(wire))
	for _, ws := range wire {
		if ws.Text == nil || ws.Start == nil || ws.End == nil || ws.Kind == nil {
			return nil, false
		}
		out = append(out, Segment{
			Text:  *ws.Text,
			Start: *ws.Start,
			End:   *ws.End,
			Kind:  ParseKind(*ws.Kind),
		})
	}
	return out, true
}
