package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/caption-forge/backend/internal/acquire"
	"github.com/caption-forge/backend/internal/caption"
	"github.com/caption-forge/backend/internal/db"
	"github.com/caption-forge/backend/internal/job"
)

type CaptionHandler struct {
	database  *db.Database
	queue     *job.JobQueue
	service   *caption.Service
	mediaPath string
}

func NewCaptionHandler(database *db.Database, queue *job.JobQueue, service *caption.Service, mediaPath string) *CaptionHandler {
	return &CaptionHandler{database: database, queue: queue, service: service, mediaPath: mediaPath}
}

// resolveSource keeps local sources inside the media library. Relative
// paths resolve against it; absolute paths must not escape it. Remote
// URLs pass through for the acquisition step.
func (h *CaptionHandler) resolveSource(source string) (string, error) {
	if acquire.IsRemote(source) {
		return source, nil
	}
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.mediaPath, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(h.mediaPath)
	if err != nil {
		return "", err
	}
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", fmt.Errorf("source must be inside the media library")
	}
	return abs, nil
}

type generateRequest struct {
	Source       string  `json:"source"` // video URL or local path
	Format       string  `json:"format"`
	ChunkSeconds float64 `json:"chunk_seconds,omitempty"`
	Embed        bool    `json:"embed,omitempty"`
}

// Generate enqueues a caption generation job. Invalid configuration is
// rejected immediately; everything downstream is reported via the job.
func (h *CaptionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Source == "" {
		jsonError(w, "source is required", http.StatusBadRequest)
		return
	}
	source, err := h.resolveSource(req.Source)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Stored settings fill in anything the request leaves out.
	if req.Format == "" {
		req.Format = h.database.GetSetting("default_format", string(caption.FormatSRT))
	}
	if _, err := caption.ParseFormat(req.Format); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ChunkSeconds < 0 {
		jsonError(w, "chunk_seconds must be positive", http.StatusBadRequest)
		return
	}
	if req.ChunkSeconds == 0 {
		if v := h.database.GetSetting("chunk_seconds", ""); v != "" {
			if cs, perr := strconv.ParseFloat(v, 64); perr == nil && cs > 0 {
				req.ChunkSeconds = cs
			}
		}
	}

	j, err := h.queue.Enqueue(job.JobCaption, source, job.CaptionParams{
		Format:       strings.ToLower(req.Format),
		ChunkSeconds: req.ChunkSeconds,
		Embed:        req.Embed,
	})
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

type muxRequest struct {
	Source       string `json:"source"`        // local video path
	SubtitlePath string `json:"subtitle_path"` // SRT file to embed
}

// Mux enqueues a job embedding an existing SRT file into a video.
func (h *CaptionHandler) Mux(w http.ResponseWriter, r *http.Request) {
	var req muxRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Source == "" || req.SubtitlePath == "" {
		jsonError(w, "source and subtitle_path are required", http.StatusBadRequest)
		return
	}
	source, err := h.resolveSource(req.Source)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := h.queue.Enqueue(job.JobMux, source, job.MuxParams{
		SubtitlePath: req.SubtitlePath,
	})
	if err != nil {
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, j, http.StatusAccepted)
}

// Content serves the caption file produced by a completed job.
func (h *CaptionHandler) Content(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	j, err := h.queue.GetJob(id)
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if j.Status != job.StatusCompleted || len(j.Result) == 0 {
		jsonError(w, "job has no output yet", http.StatusConflict)
		return
	}

	var result job.CaptionResult
	if err := json.Unmarshal(j.Result, &result); err != nil || result.CaptionPath == "" {
		jsonError(w, "job has no caption output", http.StatusNotFound)
		return
	}

	// Serve only files under the job's own directory.
	jobDir, _ := filepath.Abs(h.service.JobDir(id))
	captionPath, _ := filepath.Abs(result.CaptionPath)
	if !strings.HasPrefix(captionPath, jobDir+string(filepath.Separator)) {
		jsonError(w, "invalid path", http.StatusForbidden)
		return
	}

	data, err := os.ReadFile(captionPath)
	if err != nil {
		jsonError(w, "caption file not found", http.StatusNotFound)
		return
	}

	switch strings.ToLower(filepath.Ext(captionPath)) {
	case ".vtt":
		w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.Write(data)
}
