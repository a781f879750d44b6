package env

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Env holds process configuration loaded from the environment.
type Env struct {
	ServerPort   int
	DBPath       string
	TimezoneName string
	Location     *time.Location
	DebugMode    bool
}

// Value is the loaded configuration. Populated by LoadEnv.
var Value Env

const (
	defaultServerPort = 8080
	defaultDBPath     = "./data/draw.db"

	// Matches the original deployment's config default.
	defaultTimezone = "Canada/Saskatchewan"
)

// LoadEnv reads .env (if present) and the process environment into Value.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	Value = Env{
		ServerPort:   getInt("SERVER_PORT", defaultServerPort),
		DBPath:       getString("DB_PATH", defaultDBPath),
		TimezoneName: getString("TIMEZONE", defaultTimezone),
		DebugMode:    getBool("DEBUG_MODE", false),
	}

	loc, err := time.LoadLocation(Value.TimezoneName)
	if err != nil {
		logger.Warn("Invalid TIMEZONE, falling back to UTC",
			zap.String("timezone", Value.TimezoneName),
			zap.Error(err))
		Value.TimezoneName = "UTC"
		loc = time.UTC
	}
	Value.Location = loc
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Invalid integer environment value, using default",
			zap.String("key", key),
			zap.String("value", v))
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}
