package caption

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/caption-forge/backend/internal/audio"
)

// Options configure one pipeline invocation. DiagnosticsDir is a
// job-scoped directory where raw service responses are persisted for
// post-hoc inspection; empty disables the sink.
type Options struct {
	ChunkSeconds   float64
	Workers        int
	DiagnosticsDir string
}

// Pipeline turns a decoded audio track into a caption transcript. One
// Pipeline serves one job; it holds no mutable state beyond its options
// and may process windows concurrently.
type Pipeline struct {
	inference Inference
	opts      Options
}

func NewPipeline(inference Inference, opts Options) *Pipeline {
	if opts.ChunkSeconds <= 0 {
		opts.ChunkSeconds = DefaultChunkSeconds
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Pipeline{inference: inference, opts: opts}
}

// Generate runs chunking, per-window transcription and gap analysis,
// global assembly and the timing pass. Windows are processed by a
// fixed-size worker pool; the assembler's sort restores deterministic
// ordering regardless of completion order. Cancellation fails the whole
// job rather than returning a partial transcript.
func (p *Pipeline) Generate(ctx context.Context, track *audio.Track) (Transcript, error) {
	windows, err := SplitTrack(track, p.opts.ChunkSeconds)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return Transcript{}, nil
	}

	log.Info().Msgf("[caption] processing %d windows of %.0fs with %d workers",
		len(windows), p.opts.ChunkSeconds, p.opts.Workers)

	results := make([][]Segment, len(windows))
	sem := make(chan struct{}, p.opts.Workers)
	var wg sync.WaitGroup

	for _, win := range windows {
		wg.Add(1)
		go func(win Window) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			drafts := p.transcribeWindow(ctx, win)
			results[win.Index] = p.fillGaps(ctx, win, drafts)
			log.Info().Msgf("[caption] window %d (%.2fs-%.2fs): %d segments",
				win.Index, win.Start, win.End, len(results[win.Index]))
		}(win)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assembled := Assemble(results...)
	return p.Optimize(ctx, assembled), nil
}

// saveDiagnostic persists a raw request/response artifact. Best-effort:
// failures are logged and never block the pipeline.
func (p *Pipeline) saveDiagnostic(win Window, suffix, content string) {
	if p.opts.DiagnosticsDir == "" {
		return
	}
	if err := os.MkdirAll(p.opts.DiagnosticsDir, 0755); err != nil {
		log.Debug().Err(err).Msg("[caption] diagnostics dir unavailable")
		return
	}
	name := fmt.Sprintf("chunk_%.2f_%s", win.Start, suffix)
	if err := os.WriteFile(filepath.Join(p.opts.DiagnosticsDir, name), []byte(content), 0644); err != nil {
		log.Debug().Err(err).Msgf("[caption] failed to save diagnostic %s", name)
	}
}
