package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/caption-forge/backend/internal/api"
	"github.com/caption-forge/backend/internal/auth"
	"github.com/caption-forge/backend/internal/caption"
	"github.com/caption-forge/backend/internal/config"
	"github.com/caption-forge/backend/internal/db"
	"github.com/caption-forge/backend/internal/gemini"
	"github.com/caption-forge/backend/internal/job"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()

	// Ensure data directories exist
	os.MkdirAll(cfg.DataPath, 0755)
	os.MkdirAll(cfg.CaptionPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to create admin user")
	}
	log.Info().Msgf("admin user ensured: %s", cfg.AdminUsername)

	// Job queue
	jobQueue := job.NewJobQueue(database.DB())
	defer jobQueue.Stop()

	// Gemini client. Key and model come from settings when present,
	// falling back to the environment; both are resolved per call so a
	// settings change applies to the next job without a restart.
	geminiClient := gemini.NewClient(func() string {
		return database.GetSetting("gemini_api_key", cfg.GeminiAPIKey)
	}, func() string {
		return database.GetSetting("gemini_model", cfg.GeminiModel)
	})

	// Caption service registers its job handlers on construction
	captionService := caption.NewService(geminiClient, jobQueue, cfg.CaptionPath, cfg.ChunkSeconds, cfg.CaptionWorkers)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Create router
	router := api.NewRouter(database, jwtService, cfg, jobQueue, captionService)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Msgf("starting server on %s", addr)
	log.Info().Msgf("caption output path: %s", cfg.CaptionPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down...")
		jobQueue.Stop()
		database.Close()
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
