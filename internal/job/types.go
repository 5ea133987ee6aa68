package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	JobCaption JobType = "caption"
	JobMux     JobType = "mux"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued task (caption generation or subtitle muxing)
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	Source      string          `json:"source"` // media URL or local path
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// CaptionParams are parameters for a caption generation job
type CaptionParams struct {
	Format       string  `json:"format"`                  // "srt" or "vtt"
	ChunkSeconds float64 `json:"chunk_seconds,omitempty"` // window size, default 30
	Embed        bool    `json:"embed,omitempty"`         // also mux captions into the video
}

// MuxParams are parameters for a subtitle muxing job
type MuxParams struct {
	SubtitlePath string `json:"subtitle_path"` // SRT file to embed
}

// CaptionResult is the output of a successful caption job
type CaptionResult struct {
	CaptionPath string  `json:"caption_path"`         // generated caption file
	VideoPath   string  `json:"video_path,omitempty"` // video with embedded captions, if requested
	Segments    int     `json:"segments"`             // cue count
	Duration    float64 `json:"duration"`             // track duration in seconds
}

// MuxResult is the output of a successful mux job
type MuxResult struct {
	OutputPath string `json:"output_path"`
}

// JobHandler processes a job. Implementations are provided by the
// caption service.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error
