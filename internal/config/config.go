package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"clue_backend/internal/logger"
)

type Config struct {
	AppPort string

	// пустой адрес - снимки лобби только в памяти
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SnapshotTTL   time.Duration

	// пустой URL - история партий не пишется
	DatabaseURL string

	// пустой секрет - случайный ключ на время жизни процесса
	PlayerTokenSecret string
	PlayerTokenTTL    time.Duration

	AllowedOrigin      string
	PublicURL          string
	RateLimitPerMinute int

	// сколько держать завершенное лобби в памяти
	FinishedLobbyTTL time.Duration
	CleanupInterval  time.Duration

	LogLevel string
	LogJSON  bool
}

// Load читает конфигурацию из окружения, .env не обязателен
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug(".env not loaded", "error", err)
	}

	return &Config{
		AppPort:            getEnv("APP_PORT", "8080"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            getInt("REDIS_DB", 0),
		SnapshotTTL:        getDuration("SNAPSHOT_TTL", 24*time.Hour),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		PlayerTokenSecret:  os.Getenv("PLAYER_TOKEN_SECRET"),
		PlayerTokenTTL:     getDuration("PLAYER_TOKEN_TTL", 24*time.Hour),
		AllowedOrigin:      os.Getenv("ALLOWED_ORIGIN"),
		PublicURL:          os.Getenv("PUBLIC_URL"),
		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 120),
		FinishedLobbyTTL:   getDuration("FINISHED_LOBBY_TTL", 30*time.Minute),
		CleanupInterval:    getDuration("CLEANUP_INTERVAL", time.Minute),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogJSON:            os.Getenv("LOG_FORMAT") == "json",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid int in env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid duration in env, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
