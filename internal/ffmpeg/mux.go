package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
)

// MuxSubtitles copies the source video and audio streams unchanged and
// attaches the subtitle file as a selectable mov_text track. Only SRT
// input is guaranteed supported here.
func MuxSubtitles(ctx context.Context, videoPath, subtitlePath, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", subtitlePath,
		"-c:v", "copy",
		"-c:a", "copy",
		"-c:s", "mov_text",
		"-metadata:s:s:0", "language=eng",
		"-y",
		outPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg mux: %s: %w", string(output), err)
	}
	return nil
}
