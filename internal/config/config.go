package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

type Config struct {
	Mode Mode

	Port string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	PlacesAPIKey string

	StorageBackend string // "memory", "redis" or "firestore"
	RedisAddr      string
	RedisPassword  string

	UseMockLLM    bool // true = use mock even on GCP
	UseMockPlaces bool

	MaxSessions    int
	SessionTimeout time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return n
}

// Load reads all env vars and builds the config.
func Load() *Config {
	// .env is optional; missing file is not an error.
	_ = godotenv.Load()

	modeStr := getEnv("CALIO_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("CALIO_PORT", "8080"),

		GCPProjectID: getEnv("CALIO_GCP_PROJECT", ""),
		GCPLocation:  getEnv("CALIO_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("CALIO_MODEL_NAME", "gemini-2.5-flash-lite"),

		PlacesAPIKey: getEnv("GOOGLE_PLACES_API_KEY", ""),

		StorageBackend: getEnv("CALIO_STORAGE_BACKEND", "memory"),
		RedisAddr:      getEnv("CALIO_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("CALIO_REDIS_PASSWORD", ""),

		UseMockLLM:    getBoolEnv("CALIO_USE_MOCK_LLM", mode == ModeLocal),
		UseMockPlaces: getBoolEnv("CALIO_USE_MOCK_PLACES", mode == ModeLocal),

		MaxSessions:    getIntEnv("CALIO_MAX_SESSIONS", 100),
		SessionTimeout: time.Duration(getIntEnv("CALIO_SESSION_TIMEOUT_MIN", 30)) * time.Minute,
	}

	// Minimal validation in GCP mode
	if cfg.Mode == ModeGCP && cfg.GCPProjectID == "" {
		log.Fatal("CALIO_GCP_PROJECT must be set in gcp mode")
	}
	if !cfg.UseMockPlaces && cfg.PlacesAPIKey == "" {
		log.Fatal("GOOGLE_PLACES_API_KEY must be set unless CALIO_USE_MOCK_PLACES=1")
	}

	return cfg
}
