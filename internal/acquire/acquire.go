package acquire

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// IsRemote reports whether source is a downloadable URL rather than a
// local file path.
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// VideoID extracts a stable identifier from a video URL for naming
// output artifacts. Falls back to "video" when nothing recognizable is
// found.
func VideoID(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return "video"
	}
	if u.Host == "youtu.be" {
		if id := strings.TrimPrefix(u.Path, "/"); id != "" {
			return id
		}
	}
	if id := u.Query().Get("v"); id != "" {
		return id
	}
	return "video"
}

// Fetch resolves source to a local media file. Local paths are verified
// to exist; remote URLs are downloaded into destDir with yt-dlp.
// Acquisition failures are fatal for the whole job.
func Fetch(ctx context.Context, source, destDir string) (string, error) {
	if !IsRemote(source) {
		if _, err := os.Stat(source); err != nil {
			return "", fmt.Errorf("media file not found: %s", source)
		}
		return source, nil
	}

	outPath := filepath.Join(destDir, "video.mp4")
	log.Info().Msgf("[acquire] downloading %s", source)

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"-o", outPath,
		"--no-warnings",
		source,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp: %s: %w", string(output), err)
	}

	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("download produced no file: %s", source)
	}

	log.Info().Msgf("[acquire] downloaded to %s", outPath)
	return outPath, nil
}
