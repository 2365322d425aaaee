package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; empty disables shot history)
	DatabaseURL string

	// Redis (optional; empty disables snapshot caching)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Simulation
	TickRate             int
	SessionExpiryMinutes int
	JanitorPollSeconds   int
	SnapshotTTLMinutes   int

	// Input
	InputEventsPerSecond int
	InputBurst           int

	// Security
	JWTSecret          string
	SessionTokenTTLMin int
	AdminKeyHash       string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Simulation
		TickRate:             getEnvInt("TICK_RATE", 60),
		SessionExpiryMinutes: getEnvInt("SESSION_EXPIRY_MINUTES", 10),
		JanitorPollSeconds:   getEnvInt("JANITOR_POLL_SECONDS", 60),
		SnapshotTTLMinutes:   getEnvInt("SNAPSHOT_TTL_MINUTES", 60),

		// Input
		InputEventsPerSecond: getEnvInt("INPUT_EVENTS_PER_SECOND", 10),
		InputBurst:           getEnvInt("INPUT_BURST", 20),

		// Security
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTokenTTLMin: getEnvInt("SESSION_TOKEN_TTL_MINUTES", 720),
		AdminKeyHash:       getEnv("ADMIN_KEY_HASH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
