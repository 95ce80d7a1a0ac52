package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr               string
	Environment        string
	LogLevel           string
	ProjectID          string
	ProjectCode        string
	ProjectName        string
	ClassifierEnabled  bool
	ClassifierURL      string
	ClassifierAPIKey   string
	ClassifierModel    string
	ClassifierTimeout  time.Duration
	ArchivalMaxWidth   int
	ArchivalQuality    float64
	ThumbnailMaxWidth  int
	ThumbnailQuality   float64
	BlobEncryptionKey  string
	MaxBodyBytes       int64
	MaxImagePixels     int
	RateLimitPerMinute int
	BulkQueueSize      int
	MetricsEnabled     bool
	ActivityLogSize    int
	EmailFrom          string
	EmailEnabled       bool
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	SMTPUseTLS         bool
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		}
	}
	if len(existing) == 0 {
		return
	}
	_ = godotenv.Load(existing...)
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ProjectID:          getEnv("PROJECT_ID", "1"),
		ProjectCode:        getEnv("PROJECT_CODE", "PFEA-0000-000"),
		ProjectName:        getEnv("PROJECT_NAME", "Obra sin nombre"),
		ClassifierEnabled:  getEnvBool("CLASSIFIER_ENABLED", true),
		ClassifierURL:      getEnv("CLASSIFIER_URL", "https://openrouter.ai/api/v1/chat/completions"),
		ClassifierAPIKey:   getEnv("CLASSIFIER_API_KEY", ""),
		ClassifierModel:    getEnv("CLASSIFIER_MODEL", "google/gemini-2.5-flash"),
		ClassifierTimeout:  getEnvDuration("CLASSIFIER_TIMEOUT", 30*time.Second),
		ArchivalMaxWidth:   getEnvInt("ARCHIVAL_MAX_WIDTH", 1024),
		ArchivalQuality:    getEnvFloat("ARCHIVAL_QUALITY", 0.6),
		ThumbnailMaxWidth:  getEnvInt("THUMBNAIL_MAX_WIDTH", 150),
		ThumbnailQuality:   getEnvFloat("THUMBNAIL_QUALITY", 0.5),
		BlobEncryptionKey:  getEnv("BLOB_ENCRYPTION_KEY", ""),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 32<<20)),
		MaxImagePixels:     getEnvInt("MAX_IMAGE_PIXELS", 40_000_000),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		BulkQueueSize:      getEnvInt("BULK_QUEUE_SIZE", 16),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		ActivityLogSize:    getEnvInt("ACTIVITY_LOG_SIZE", 1000),
		EmailFrom:          getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:       getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:         getEnvBool("SMTP_USE_TLS", true),
	}
}

// ClassifierConfigured reports whether intake should call the remote classifier
// at all. Without it every intake takes the fallback classification.
func (c Config) ClassifierConfigured() bool {
	return c.ClassifierEnabled && strings.TrimSpace(c.ClassifierAPIKey) != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ProjectID) == "" {
		return fmt.Errorf("PROJECT_ID is required")
	}
	if c.ArchivalMaxWidth <= 0 || c.ThumbnailMaxWidth <= 0 {
		return fmt.Errorf("ARCHIVAL_MAX_WIDTH and THUMBNAIL_MAX_WIDTH must be positive")
	}
	if c.ThumbnailMaxWidth > c.ArchivalMaxWidth {
		return fmt.Errorf("THUMBNAIL_MAX_WIDTH must not exceed ARCHIVAL_MAX_WIDTH")
	}
	if !validQuality(c.ArchivalQuality) || !validQuality(c.ThumbnailQuality) {
		return fmt.Errorf("ARCHIVAL_QUALITY and THUMBNAIL_QUALITY must be in (0, 1]")
	}
	if c.ClassifierConfigured() && strings.TrimSpace(c.ClassifierURL) == "" {
		return fmt.Errorf("CLASSIFIER_URL must be set when CLASSIFIER_API_KEY is provided")
	}
	if c.ClassifierTimeout <= 0 {
		return fmt.Errorf("CLASSIFIER_TIMEOUT must be positive")
	}
	if key := strings.TrimSpace(c.BlobEncryptionKey); key != "" && !validKeyLength(key) {
		return fmt.Errorf("BLOB_ENCRYPTION_KEY must decode to 32 bytes")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxImagePixels < 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must not be negative")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.BulkQueueSize <= 0 {
		return fmt.Errorf("BULK_QUEUE_SIZE must be positive")
	}
	if c.ActivityLogSize < 0 {
		return fmt.Errorf("ACTIVITY_LOG_SIZE must not be negative")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

func validQuality(q float64) bool {
	return q > 0 && q <= 1
}

func validKeyLength(raw string) bool {
	if len(raw) == 64 {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return len(decoded) == 32
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return len(decoded) == 32
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil {
		return len(decoded) == 32
	}
	return len(raw) == 32
}
