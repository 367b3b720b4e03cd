package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string
	AppEnv   string

	RedisAddr string
	RedisPass string
	RedisDB   int

	KafkaBrokers []string
	KafkaTopic   string

	CountriesAPIURL string
	RatesAPIURL     string
	RatesBase       string
	ProviderTimeout time.Duration

	RefreshInterval time.Duration
	SeedOnStartup   bool
	LockTTL         time.Duration
	SummaryTopN     int

	ArtifactStore string // "file" or "redis"
	ArtifactPath  string

	RateLimit       int
	RateLimitWindow time.Duration
	RateLimitBlock  time.Duration
}

func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		AppEnv:   getEnv("APP_ENV", "production"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		KafkaBrokers: parseCSVEnv("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "countries.refreshed"),

		CountriesAPIURL: getEnv("COUNTRIES_API_URL", "https://restcountries.com/v2"),
		RatesAPIURL:     getEnv("RATES_API_URL", "https://open.er-api.com/v6/latest"),
		RatesBase:       getEnv("RATES_BASE", "USD"),
		ProviderTimeout: getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),

		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 0),
		SeedOnStartup:   getEnvAsBool("SEED_ON_STARTUP", true),
		LockTTL:         getEnvAsDuration("LOCK_TTL", 2*time.Minute),
		SummaryTopN:     clamp(getEnvAsInt("SUMMARY_TOP_N", 5), 1, 5),

		ArtifactStore: strings.ToLower(getEnv("ARTIFACT_STORE", "file")),
		ArtifactPath:  getEnv("ARTIFACT_PATH", "cache/summary.png"),

		RateLimit:       getEnvAsInt("RATE_LIMIT", 100),
		RateLimitWindow: getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitBlock:  getEnvAsDuration("RATE_LIMIT_BLOCK", 10*time.Minute),
	}
}

// RedisEnabled reports whether a Redis address was configured.
func (c AppConfig) RedisEnabled() bool { return c.RedisAddr != "" }

func (c AppConfig) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func (c AppConfig) Development() bool { return c.AppEnv == "development" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseCSVEnv drops empty entries, so an unset key yields an empty list.
func parseCSVEnv(key, fallback string) []string {
	val := getEnv(key, fallback)
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
