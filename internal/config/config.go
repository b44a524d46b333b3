package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the arrivals service
type Config struct {
	// Database: SQLite file by default, Postgres when DATABASE_URL is set
	DatabaseURL  string
	DatabasePath string

	// HTTP
	Port           string
	AllowedOrigins []string

	// Live vehicle feed
	VehicleFeedURL    string
	VehicleFeedFormat string // "mpk" or "gtfsrt"
	FeedTimeout       time.Duration
	PositionsTTL      time.Duration
	FetchConcurrency  int

	// Arrival estimation
	BatchConcurrency int
	Location         *time.Location

	// Position history
	HistorySweepInterval time.Duration
	HistoryMaxAge        time.Duration

	// Departure board publishing (optional, requires NATS_URL)
	NATSURL       string
	BoardStops    []string
	BoardInterval time.Duration

	// Tunable estimation heuristics
	Heuristics Heuristics
}

// Load reads configuration from .env and environment variables, plus the
// optional heuristics file pointed at by HEURISTICS_FILE
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabasePath: getEnv("SQLITE_DATABASE", "data/timetable.db"),

		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),

		VehicleFeedURL:    getEnv("VEHICLE_FEED_URL", "https://mpk.wroc.pl/bus_position"),
		VehicleFeedFormat: getEnv("VEHICLE_FEED_FORMAT", "mpk"),
		FeedTimeout:       time.Duration(getEnvInt("FEED_TIMEOUT_SECONDS", 30)) * time.Second,
		PositionsTTL:      time.Duration(getEnvInt("POSITIONS_TTL_SECONDS", 10)) * time.Second,
		FetchConcurrency:  getEnvInt("FETCH_CONCURRENCY", 5),

		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 5),

		HistorySweepInterval: time.Duration(getEnvInt("HISTORY_SWEEP_SECONDS", 60)) * time.Second,
		HistoryMaxAge:        time.Duration(getEnvInt("HISTORY_MAX_AGE_MINUTES", 10)) * time.Minute,

		NATSURL:       os.Getenv("NATS_URL"),
		BoardStops:    splitList(os.Getenv("BOARD_STOPS")),
		BoardInterval: time.Duration(getEnvInt("BOARD_INTERVAL_SECONDS", 30)) * time.Second,
	}

	switch cfg.VehicleFeedFormat {
	case "mpk", "gtfsrt":
	default:
		return nil, fmt.Errorf("invalid VEHICLE_FEED_FORMAT: %q", cfg.VehicleFeedFormat)
	}

	tzName := getEnv("TZ", "Europe/Warsaw")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TZ: %w", err)
	}
	cfg.Location = loc

	heuristics, err := LoadHeuristics(os.Getenv("HEURISTICS_FILE"))
	if err != nil {
		return nil, err
	}
	cfg.Heuristics = heuristics

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
