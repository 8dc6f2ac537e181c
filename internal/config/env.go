package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level        string
	Pretty       bool
	File         string
	MaxSizeMB    int
	MaxBackups   int
	MaxAgeDays   int
	Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
	MinLevel      string
}

// StorageConfig controls S3 access for s3:// inputs and outputs.
type StorageConfig struct {
	Region            string
	Bucket            string // checked by `pdfsplit doctor`
	UploadPartSizeMB  int64
	UploadConcurrency int
}

// StatusConfig enables run status records in Redis when RedisURL is set.
type StatusConfig struct {
	RedisURL  string
	KeyPrefix string
	TTL       time.Duration
}

// MetricsConfig names the Prometheus textfile written at exit; empty disables it.
type MetricsConfig struct {
	TextfilePath string
}

// FetchConfig controls downloads of remote inputs.
type FetchConfig struct {
	HTTPTimeout time.Duration
	TempMaxAge  time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Storage StorageConfig
	Status  StatusConfig
	Metrics MetricsConfig
	Fetch   FetchConfig
}

// LoadDotEnv loads .env files into the environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		_ = godotenv.Load(f)
	}
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfsplit",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
		MinLevel:      getEnv("AXIOM_MIN_LEVEL", "info"),
	}

	cfg.Storage = StorageConfig{
		Region:            getEnv("AWS_REGION", ""),
		Bucket:            getEnv("AWS_S3_BUCKET", ""),
		UploadPartSizeMB:  int64(parseInt(getEnv("S3_UPLOAD_PART_SIZE_MB", "8"), 8)),
		UploadConcurrency: parseInt(getEnv("S3_UPLOAD_CONCURRENCY", "4"), 4),
	}
	if cfg.Storage.UploadPartSizeMB < 5 {
		cfg.Storage.UploadPartSizeMB = 5
	}

	cfg.Status = StatusConfig{
		RedisURL:  getEnv("PDFSPLIT_STATUS_REDIS_URL", ""),
		KeyPrefix: getEnv("PDFSPLIT_STATUS_PREFIX", "pdfsplit"),
		TTL:       parseDuration(getEnv("PDFSPLIT_STATUS_TTL", "168h"), 7*24*time.Hour),
	}

	cfg.Metrics = MetricsConfig{
		TextfilePath: getEnv("PDFSPLIT_METRICS_FILE", ""),
	}

	cfg.Fetch = FetchConfig{
		HTTPTimeout: parseDuration(getEnv("PDFSPLIT_HTTP_TIMEOUT", "60s"), 60*time.Second),
		TempMaxAge:  parseDuration(getEnv("PDFSPLIT_TEMP_MAX_AGE", "24h"), 24*time.Hour),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
