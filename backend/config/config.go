package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string
	JWTSecret  string
	TokenTTL   time.Duration
	ServerPort string
	Timezone   string
	// AppEnv "development" exposes password reset tokens in API responses.
	AppEnv     string

	LogFormat string
	LogFile   string

	RecomputeWorkers   int
	RecomputeQueueSize int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:           getEnv("DB_DRIVER", "postgres"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "habit_tracker"),
		DBPath:             getEnv("DB_PATH", "./data/habits.db"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		TokenTTL:           time.Duration(getEnvInt("TOKEN_TTL_HOURS", 72)) * time.Hour,
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Timezone:           getEnv("APP_TIMEZONE", "Local"),
		AppEnv:             getEnv("APP_ENV", "production"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogFile:            getEnv("LOG_FILE", ""),
		RecomputeWorkers:   getEnvInt("RECOMPUTE_WORKERS", 2),
		RecomputeQueueSize: getEnvInt("RECOMPUTE_QUEUE_SIZE", 256),
	}, nil
}

// Location resolves the calendar used for day boundaries. Unknown names fall back to
// the server's local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Unknown APP_TIMEZONE %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}
