package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	OTLP     OTLPConfig
	Upstream UpstreamConfig
	Images   ImageConfig
	Render   RenderConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type OTLPConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Environment string
}

// UpstreamConfig points at the product-embedding service.
type UpstreamConfig struct {
	EmbedEndpoint    string
	Timeout          time.Duration
	DefaultPartnerID string
}

// ImageConfig controls image dimension lookups.
type ImageConfig struct {
	ProbeTimeout       time.Duration
	DimensionCacheSize int
}

// RenderConfig tunes page rendering.
type RenderConfig struct {
	Prefetch      bool
	PrefetchLimit int
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory, or the one named by APIP_ENV_FILE, is read first;
// variables already set in the environment win.
func LoadConfig() *Config {
	envFile := getEnv("APIP_ENV_FILE", ".env")
	_ = godotenv.Load(envFile)

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		OTLP: OTLPConfig{
			Enabled:     getBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "apip-render"),
			Environment: getEnv("OTEL_ENVIRONMENT", "development"),
		},
		Upstream: UpstreamConfig{
			EmbedEndpoint:    getEnv("APIP_EMBED_ENDPOINT", ""),
			Timeout:          getDuration("APIP_EMBED_TIMEOUT", 10*time.Second),
			DefaultPartnerID: getEnv("APIP_DEFAULT_PARTNER_ID", ""),
		},
		Images: ImageConfig{
			ProbeTimeout:       getDuration("APIP_IMAGE_PROBE_TIMEOUT", 5*time.Second),
			DimensionCacheSize: getInt("APIP_IMAGE_CACHE_SIZE", 512),
		},
		Render: RenderConfig{
			Prefetch:      getBool("APIP_PREFETCH", true),
			PrefetchLimit: getInt("APIP_PREFETCH_LIMIT", 4),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key))); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key))); err == nil {
		return b
	}
	return defaultValue
}
