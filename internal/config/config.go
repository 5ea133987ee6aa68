package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           int
	MediaPath      string
	DataPath       string
	DBPath         string
	JWTSecret      string
	AdminUsername  string
	AdminPassword  string
	CaptionPath    string
	GeminiAPIKey   string
	GeminiModel    string
	ChunkSeconds   float64
	CaptionWorkers int
	CORSOrigins    []string
}

func Load() *Config {
	// Local development convenience; missing .env is not an error.
	godotenv.Load()

	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")
	chunkSeconds, _ := strconv.ParseFloat(getEnv("CHUNK_SECONDS", "30"), 64)
	workers, _ := strconv.Atoi(getEnv("CAPTION_WORKERS", "4"))

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatal().Err(err).Msg("failed to generate random JWT secret")
		}
		jwtSecret = hex.EncodeToString(b)
		log.Warn().Msg("JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:           port,
		MediaPath:      getEnv("MEDIA_PATH", "/media"),
		DataPath:       dataPath,
		DBPath:         getEnv("DB_PATH", dataPath+"/captionforge.db"),
		JWTSecret:      jwtSecret,
		AdminUsername:  getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:  getEnv("ADMIN_PASSWORD", "admin"),
		CaptionPath:    getEnv("CAPTION_PATH", dataPath+"/captions"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ChunkSeconds:   chunkSeconds,
		CaptionWorkers: workers,
		CORSOrigins:    corsOrigins,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
