package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultPort           = "8080"
	defaultDatabasePath   = "movies.db"
	defaultPostgresPort   = 5432
	defaultRequestTimeout = 60 * time.Second
)

type Config struct {
	Port string `validate:"required,numeric"`

	// store selection
	DatabaseDriver string `validate:"oneof=sqlite postgres"`
	DatabasePath   string `validate:"required_if=DatabaseDriver sqlite"`

	// server connection parameters, postgres only
	DatabaseHost     string `validate:"required_if=DatabaseDriver postgres"`
	DatabasePort     int    `validate:"min=1,max=65535"`
	DatabaseName     string `validate:"required_if=DatabaseDriver postgres"`
	DatabaseUser     string `validate:"required_if=DatabaseDriver postgres"`
	DatabasePassword string
	DatabaseSSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"` // certificate trust mode

	// log every translated SQL statement
	DatabaseLogSQL bool

	LogLevel  string `validate:"oneof=trace debug info warn error"`
	LogFormat string `validate:"oneof=console json"`

	CORSAllowedOrigins []string
	RequestTimeout     time.Duration `validate:"gt=0"`
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %t. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvListOrDefault(envVar string, defaultVal []string) []string {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	timeout := defaultRequestTimeout
	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REQUEST_TIMEOUT '%s': %w", raw, err)
		}
		timeout = d
	}

	cfg := Config{
		Port:               getEnvOrDefault("PORT", defaultPort),
		DatabaseDriver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverSQLite)),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", defaultDatabasePath),
		DatabaseHost:       os.Getenv("DB_HOST"),
		DatabasePort:       getEnvIntOrDefault("DB_PORT", defaultPostgresPort),
		DatabaseName:       os.Getenv("DB_NAME"),
		DatabaseUser:       os.Getenv("DB_USER"),
		DatabasePassword:   os.Getenv("DB_PASSWORD"),
		DatabaseSSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
		DatabaseLogSQL:     getEnvBoolOrDefault("DB_LOG_SQL", false),
		LogLevel:           strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnvOrDefault("LOG_FORMAT", "console")),
		CORSAllowedOrigins: getEnvListOrDefault("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RequestTimeout:     timeout,
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
