// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Servers
	ListenAddr  string
	MetricsAddr string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SQLitePath    string

	// Market data
	DataAPIBaseURL string
	DataAPIToken   string
	BarCacheTTLMin int

	// Scanning
	ScanWorkers     int
	ScanMaxSymbols  int
	ScanLookbackDay int
	MinAvgVolume    float64

	// Market regime gate benchmark; empty disables the gate
	BenchmarkSymbol string

	// Strategy thresholds
	RSIOversold         float64
	VolumeWeight        float64
	BreakoutVolumeRatio float64

	// Institutional flow (optional capability; empty disables it)
	FlowAPIBaseURL string

	// Notifications (optional)
	WebhookURL     string
	TelegramToken  string
	TelegramChatID string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is merged in first when present.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SQLitePath:    getEnv("SQLITE_PATH", "data/journal.db"),

		DataAPIBaseURL: getEnv("DATA_API_BASE_URL", "https://api.finmindtrade.com"),
		DataAPIToken:   getEnv("DATA_API_TOKEN", ""),
		BarCacheTTLMin: getEnvInt("BAR_CACHE_TTL_MIN", 10),

		ScanWorkers:     getEnvInt("SCAN_WORKERS", 4),
		ScanMaxSymbols:  getEnvInt("SCAN_MAX_SYMBOLS", 50),
		ScanLookbackDay: getEnvInt("SCAN_LOOKBACK_DAYS", 365),
		// 20-session average volume floor in shares; 0 disables
		MinAvgVolume: getEnvFloat("MIN_AVG_VOLUME", 1_000_000),

		BenchmarkSymbol: getEnv("BENCHMARK_SYMBOL", "0050.TW"),

		RSIOversold:         getEnvFloat("RSI_OVERSOLD", 30),
		VolumeWeight:        getEnvFloat("VOLUME_WEIGHT", 1.0),
		BreakoutVolumeRatio: getEnvFloat("BREAKOUT_VOLUME_RATIO", 1.5),

		FlowAPIBaseURL: getEnv("FLOW_API_BASE_URL", ""),

		WebhookURL:     getEnv("WEBHOOK_URL", ""),
		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid int for %s: %q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid float for %s: %q, using %g", key, v, fallback)
		return fallback
	}
	return f
}
