package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/caption-forge/backend/internal/acquire"
	"github.com/caption-forge/backend/internal/audio"
	"github.com/caption-forge/backend/internal/caption"
	"github.com/caption-forge/backend/internal/ffmpeg"
	"github.com/caption-forge/backend/internal/gemini"
)

var cli struct {
	Input        string  `arg:"" help:"Video file path or URL to caption."`
	Output       string  `short:"o" default:"." help:"Output directory."`
	Format       string  `short:"f" default:"srt" enum:"srt,vtt" help:"Caption format (srt or vtt)."`
	ChunkSeconds float64 `short:"c" default:"30" help:"Transcription window size in seconds."`
	Workers      int     `default:"4" help:"Concurrent transcription workers."`
	Embed        bool    `help:"Also embed the captions into the video as a soft subtitle track."`
	Model        string  `default:"gemini-2.0-flash" env:"GEMINI_MODEL" help:"Gemini model to use."`
	APIKey       string  `env:"GEMINI_API_KEY" help:"Gemini API key."`
	Verbose      bool    `short:"v" help:"Verbose logging."`
}

func main() {
	godotenv.Load()
	kctx := kong.Parse(&cli,
		kong.Name("capgen"),
		kong.Description("Generate SRT/VTT captions for a video using Gemini audio transcription."),
	)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	if !cli.Verbose {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kctx.FatalIfErrorf(run(ctx))
}

func run(ctx context.Context) error {
	if cli.APIKey == "" {
		return fmt.Errorf("Gemini API key required (set GEMINI_API_KEY or --api-key)")
	}

	format, err := caption.ParseFormat(cli.Format)
	if err != nil {
		return err
	}

	outDir := cli.Output
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	workDir, err := os.MkdirTemp("", "capgen-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	fmt.Fprintf(os.Stderr, "Fetching %s...\n", cli.Input)
	mediaPath, err := acquire.Fetch(ctx, cli.Input, workDir)
	if err != nil {
		return fmt.Errorf("acquire media: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Extracting audio...")
	audioPath := filepath.Join(workDir, "audio.wav")
	if err := ffmpeg.ExtractAudio(ctx, mediaPath, audioPath); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}

	track, err := audio.DecodeWAV(audioPath)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Audio: %.1fs at %d Hz\n", track.Duration(), track.SampleRate)

	client := gemini.NewClient(gemini.StaticKey(cli.APIKey), func() string { return cli.Model })
	pipeline := caption.NewPipeline(client, caption.Options{
		ChunkSeconds: cli.ChunkSeconds,
		Workers:      cli.Workers,
	})

	fmt.Fprintln(os.Stderr, "Transcribing...")
	transcript, err := pipeline.Generate(ctx, track)
	if err != nil {
		return fmt.Errorf("generate transcript: %w", err)
	}

	text, err := caption.Render(transcript, format)
	if err != nil {
		return err
	}

	base := baseName(cli.Input)
	captionPath := filepath.Join(outDir, base+"."+string(format))
	if err := os.WriteFile(captionPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("save captions: %w", err)
	}
	fmt.Printf("Wrote %d segments to %s\n", len(transcript), captionPath)

	if cli.Embed {
		srtPath := captionPath
		if format != caption.FormatSRT {
			srtText, rerr := caption.Render(transcript, caption.FormatSRT)
			if rerr != nil {
				return rerr
			}
			srtPath = filepath.Join(workDir, "captions.srt")
			if err := os.WriteFile(srtPath, []byte(srtText), 0644); err != nil {
				return err
			}
		}
		videoOut := filepath.Join(outDir, base+"_with_captions.mp4")
		fmt.Fprintln(os.Stderr, "Embedding captions...")
		if err := ffmpeg.MuxSubtitles(ctx, mediaPath, srtPath, videoOut); err != nil {
			return fmt.Errorf("embed captions: %w", err)
		}
		fmt.Printf("Wrote %s\n", videoOut)
	}

	return nil
}

// baseName derives an output file stem from the input path or URL.
func baseName(input string) string {
	if acquire.IsRemote(input) {
		return acquire.VideoID(input)
	}
	name := filepath.Base(input)
	return name[:len(name)-len(filepath.Ext(name))]
}
