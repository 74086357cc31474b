package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	// Input/output.
	InputCSV  string
	OutputCSV string

	// Cleaning and feature stages.
	GeoRulesFile    string // optional YAML override for boxes and denylist
	ImputeK         int
	JoinPolicy      string // "flag" keeps unmatched rows with a marker, "drop" removes them
	RepeatPrecision int    // coordinate decimal places for repeat grouping; -1 = exact

	// Enrichment persistence.
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	// Weather archive client.
	ArchiveBaseURL string
	ArchiveTimeout time.Duration
	ArchiveRPS     float64
	ArchiveBurst   int

	// Weather linker.
	LinkWorkers      int
	LinkMaxAttempts  int
	LinkSkipExisting bool

	// Optional feature-row sink.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Process surface.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// JoinPolicyFlag and JoinPolicyDrop are the recognized values of JoinPolicy.
const (
	JoinPolicyFlag = "flag"
	JoinPolicyDrop = "drop"
)

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	archiveTimeout, err := parseDuration("ARCHIVE_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	archiveRPS, err := parseFloat("ARCHIVE_RPS", 5)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		InputCSV:  envOrDefault("INPUT_CSV", "data/CANADA_WILDFIRES.csv"),
		OutputCSV: envOrDefault("OUTPUT_CSV", "data/fire_weather_features.csv"),

		GeoRulesFile:    os.Getenv("GEO_RULES_FILE"),
		ImputeK:         parseInt("IMPUTE_K", 5),
		JoinPolicy:      envOrDefault("JOIN_POLICY", JoinPolicyFlag),
		RepeatPrecision: parseInt("REPEAT_PRECISION", -1),

		MongoURI:        envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envOrDefault("MONGO_DATABASE", "final_project_data"),
		MongoCollection: envOrDefault("MONGO_COLLECTION", "weather"),

		ArchiveBaseURL: envOrDefault("ARCHIVE_BASE_URL", ""),
		ArchiveTimeout: archiveTimeout,
		ArchiveRPS:     archiveRPS,
		ArchiveBurst:   parseInt("ARCHIVE_BURST", 2),

		LinkWorkers:      parseInt("LINK_WORKERS", 8),
		LinkMaxAttempts:  parseInt("LINK_MAX_ATTEMPTS", 3),
		LinkSkipExisting: parseBool("LINK_SKIP_EXISTING", true),

		KafkaEnabled:   parseBool("KAFKA_ENABLED", false),
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "fire-weather-features"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.InputCSV == "" {
		return nil, errors.New("INPUT_CSV is required")
	}
	if cfg.OutputCSV == "" {
		return nil, errors.New("OUTPUT_CSV is required")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.JoinPolicy != JoinPolicyFlag && cfg.JoinPolicy != JoinPolicyDrop {
		return nil, fmt.Errorf("invalid JOIN_POLICY %q: want %q or %q", cfg.JoinPolicy, JoinPolicyFlag, JoinPolicyDrop)
	}
	if cfg.ImputeK <= 0 {
		return nil, errors.New("IMPUTE_K must be positive")
	}
	if cfg.LinkWorkers <= 0 || cfg.LinkWorkers > 64 {
		return nil, errors.New("LINK_WORKERS must be in (0, 64]")
	}
	if cfg.LinkMaxAttempts <= 0 {
		return nil, errors.New("LINK_MAX_ATTEMPTS must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBool(key string, fallback bool) bool {
	if s := os.Getenv(key); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			return v
		}
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
