package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/caption-forge/backend/internal/acquire"
	"github.com/caption-forge/backend/internal/audio"
	"github.com/caption-forge/backend/internal/ffmpeg"
	"github.com/caption-forge/backend/internal/job"
)

// Service processes caption and mux jobs. Each job gets its own
// directory under captionPath holding the acquired media, extracted
// audio, diagnostics and the produced caption files.
type Service struct {
	inference    Inference
	queue        *job.JobQueue
	captionPath  string
	chunkSeconds float64
	workers      int
}

func NewService(inference Inference, queue *job.JobQueue, captionPath string, chunkSeconds float64, workers int) *Service {
	s := &Service{
		inference:    inference,
		queue:        queue,
		captionPath:  captionPath,
		chunkSeconds: chunkSeconds,
		workers:      workers,
	}
	queue.RegisterHandler(job.JobCaption, s.HandleCaptionJob)
	queue.RegisterHandler(job.JobMux, s.HandleMuxJob)
	return s
}

// JobDir returns the output directory for a job.
func (s *Service) JobDir(jobID string) string {
	return filepath.Join(s.captionPath, jobID)
}

// HandleCaptionJob generates a caption file for the job's media source
// and optionally muxes it into the video as a soft subtitle track.
func (s *Service) HandleCaptionJob(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.CaptionParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	format, err := ParseFormat(params.Format)
	if err != nil {
		return err
	}

	outDir := s.JobDir(j.ID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create job dir: %w", err)
	}

	log.Info().Msgf("[caption] starting job %s: source=%s format=%s", j.ID, j.Source, format)

	mediaPath, err := acquire.Fetch(ctx, j.Source, outDir)
	if err != nil {
		return fmt.Errorf("acquire media: %w", err)
	}
	updateProgress(0.05)

	info, err := ffmpeg.Probe(ctx, mediaPath)
	if err != nil {
		return fmt.Errorf("probe media: %w", err)
	}
	if !info.HasAudio() {
		return fmt.Errorf("media has no audio stream: %s", mediaPath)
	}
	log.Info().Msgf("[caption] job %s: media duration %.1fs (audio=%s)", j.ID, info.Duration, info.AudioCodec)

	audioPath := filepath.Join(outDir, "audio.wav")
	if err := ffmpeg.ExtractAudio(ctx, mediaPath, audioPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	updateProgress(0.1)

	track, err := audio.DecodeWAV(audioPath)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	chunkSeconds := s.chunkSeconds
	if params.ChunkSeconds > 0 {
		chunkSeconds = params.ChunkSeconds
	}
	pipeline := NewPipeline(s.inference, Options{
		ChunkSeconds:   chunkSeconds,
		Workers:        s.workers,
		DiagnosticsDir: outDir,
	})

	transcript, err := pipeline.Generate(ctx, track)
	if err != nil {
		return fmt.Errorf("generate transcript: %w", err)
	}
	updateProgress(0.8)

	captionFile := filepath.Join(outDir, "captions."+string(format))
	text, err := Render(transcript, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(captionFile, []byte(text), 0644); err != nil {
		return fmt.Errorf("save captions: %w", err)
	}
	log.Info().Msgf("[caption] job %s: saved %d segments to %s", j.ID, len(transcript), captionFile)

	result := job.CaptionResult{
		CaptionPath: captionFile,
		Segments:    len(transcript),
		Duration:    track.Duration(),
	}
	updateProgress(0.85)

	if params.Embed {
		// Only SRT is supported at the mux boundary; render a sibling
		// SRT when the requested format is VTT.
		srtPath := captionFile
		if format != FormatSRT {
			srtText, rerr := Render(transcript, FormatSRT)
			if rerr != nil {
				return rerr
			}
			srtPath = filepath.Join(outDir, "captions.srt")
			if err := os.WriteFile(srtPath, []byte(srtText), 0644); err != nil {
				return fmt.Errorf("save srt for embedding: %w", err)
			}
		}

		videoOut := filepath.Join(outDir, "video_with_captions.mp4")
		if err := ffmpeg.MuxSubtitles(ctx, mediaPath, srtPath, videoOut); err != nil {
			return fmt.Errorf("embed captions: %w", err)
		}
		result.VideoPath = videoOut
		log.Info().Msgf("[caption] job %s: embedded captions into %s", j.ID, videoOut)
	}

	if err := s.queue.SetResult(j.ID, result); err != nil {
		log.Warn().Err(err).Msgf("[caption] job %s: failed to store result", j.ID)
	}

	updateProgress(1.0)
	return nil
}

// HandleMuxJob embeds an existing SRT file into the job's video source.
func (s *Service) HandleMuxJob(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.MuxParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	if _, err := os.Stat(j.Source); err != nil {
		return fmt.Errorf("video file not found: %s", j.Source)
	}
	if _, err := os.Stat(params.SubtitlePath); err != nil {
		return fmt.Errorf("subtitle file not found: %s", params.SubtitlePath)
	}

	outDir := s.JobDir(j.ID)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create job dir: %w", err)
	}
	updateProgress(0.1)

	outPath := filepath.Join(outDir, "video_with_captions.mp4")
	if err := ffmpeg.MuxSubtitles(ctx, j.Source, params.SubtitlePath, outPath); err != nil {
		return err
	}

	if err := s.queue.SetResult(j.ID, job.MuxResult{OutputPath: outPath}); err != nil {
		log.Warn().Err(err).Msgf("[caption] job %s: failed to store result", j.ID)
	}

	log.Info().Msgf("[caption] job %s: muxed subtitles into %s", j.ID, outPath)
	updateProgress(1.0)
	return nil
}
