package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSearchQuery = "room for rent"
	DefaultTotal       = 101
)

// Config holds all application configuration. The search query and target
// total come from command-line flags; everything else from the environment.
type Config struct {
	SearchQuery string
	Total       int

	OutputPath string
	ChromeBin  string
	Headless   bool
	LogLevel   string
	RunTimeout time.Duration

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SearchQuery: DefaultSearchQuery,
		Total:       DefaultTotal,

		OutputPath: getEnv("OUTPUT_PATH", "escape_rooms.json"),
		ChromeBin:  getEnv("CHROME_BIN", ""),
		Headless:   getEnvBool("HEADLESS", true),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		RunTimeout: getEnvDuration("RUN_TIMEOUT", 30*time.Minute),

		PostgresHost:     getEnv("POSTGRES_HOST", ""),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "places_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}
}

// Validate checks the values that come from the command line.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SearchQuery) == "" {
		return errors.New("search query must not be empty")
	}
	if c.Total <= 0 {
		return errors.New("total must be a positive integer")
	}
	if strings.TrimSpace(c.OutputPath) == "" {
		return errors.New("output path must not be empty")
	}
	return nil
}

// PostgresEnabled reports whether the PostgreSQL mirror should be written.
func (c *Config) PostgresEnabled() bool {
	return c.PostgresHost != ""
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
