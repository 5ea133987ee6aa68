package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
)

// ExtractAudio decodes the media file's audio track to mono 16kHz
// 16-bit PCM WAV at outPath, the payload format the caption pipeline
// consumes.
func ExtractAudio(ctx context.Context, mediaPath, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-hide_banner",
		"-loglevel", "error",
		"-i", mediaPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-y",
		outPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg: %s: %w", string(output), err)
	}
	return nil
}
