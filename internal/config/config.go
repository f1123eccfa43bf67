package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// AttributionPolicy controls which monthly budgets a transaction's amount is
// attributed to when it is recorded.
type AttributionPolicy string

const (
	// AttributionUniform attributes the full amount to every tracked budget type.
	AttributionUniform AttributionPolicy = "uniform"
	// AttributionMatched attributes the amount only to budgets whose type
	// matches the transaction's nature.
	AttributionMatched AttributionPolicy = "matched"
)

// Config holds application configuration. It is constructed once in main and
// passed explicitly to the components that need it.
type Config struct {
	// Server
	Port string
	Env  string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// LLM
	GeminiModel string

	// Budget attribution
	Attribution AttributionPolicy
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),

		GeminiModel: getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		Attribution: AttributionPolicy(getEnv("BUDGET_ATTRIBUTION", string(AttributionUniform))),
	}

	if config.Attribution != AttributionUniform && config.Attribution != AttributionMatched {
		log.Printf("Warning: unknown BUDGET_ATTRIBUTION value '%s', falling back to uniform\n", config.Attribution)
		config.Attribution = AttributionUniform
	}

	return config, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration environment variable or returns a default value
func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}
