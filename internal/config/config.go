package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OCR providers.
const (
	OCRNone      = "none"
	OCRTesseract = "tesseract"
	OCRDocAI     = "docai"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL      time.Duration
	StatsWindow time.Duration

	// OCR
	OCRProvider     string
	OCRLanguage     string
	DocAIProject    string
	DocAILocation   string
	DocAIProcessor  string
	CredentialsFile string

	// PDF
	PDFFallbackPdftotext bool

	// Completion webhook
	CallbackURL   string
	CallbackToken string

	LogLevel string
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Variables already set take precedence.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("MOTORSIG_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		StatsWindow: envDuration("STATS_WINDOW", 1*time.Hour),

		OCRProvider:     strings.ToLower(envOr("OCR_PROVIDER", OCRNone)),
		OCRLanguage:     envOr("OCR_LANGUAGE", "eng"),
		DocAIProject:    os.Getenv("DOCAI_PROJECT"),
		DocAILocation:   envOr("DOCAI_LOCATION", "us"),
		DocAIProcessor:  os.Getenv("DOCAI_PROCESSOR"),
		CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		CallbackURL:   os.Getenv("CALLBACK_URL"),
		CallbackToken: os.Getenv("CALLBACK_TOKEN"),

		LogLevel: envOr("LOG_LEVEL", "info"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return errors.New("MOTORSIG_API_KEY is required")
	}
	switch c.OCRProvider {
	case OCRNone, OCRTesseract:
	case OCRDocAI:
		if c.DocAIProject == "" || c.DocAIProcessor == "" {
			return errors.New("DOCAI_PROJECT and DOCAI_PROCESSOR are required when OCR_PROVIDER=docai")
		}
	default:
		return fmt.Errorf("OCR_PROVIDER must be none, tesseract or docai, got %q", c.OCRProvider)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
