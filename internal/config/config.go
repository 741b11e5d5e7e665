// Package config reads process settings from environment, .env file included
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/joho/godotenv/autoload"

	"bookshelf/internal/logger"
)

func GetEnvOrDefault(key, default_ string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}

	return default_
}

func GetBoolEnv(key string) bool {
	if val := strings.ToLower(os.Getenv(key)); val == "yes" || val == "on" || val == "true" || val == "1" {
		return true
	}

	return false
}

func GetIntEnv(key string, default_ int64) (int64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return default_, nil
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, val)
	}

	return n, nil
}

func GetFloatEnv(key string, default_ float64) (float64, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return default_, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, val)
	}

	return f, nil
}

func GetDurationEnv(key string, default_ time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return default_, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 20s, got %q", key, val)
	}

	return d, nil
}

// Storage is what every binary needs to reach the database
type Storage struct {
	Driver      string
	DatabaseUrl string
}

func LoadStorage() Storage {
	return Storage{
		Driver:      strings.ToLower(GetEnvOrDefault("STORAGE_DRIVER", "postgres")),
		DatabaseUrl: os.Getenv("DATABASE_URL"),
	}
}

// Server is configuration of cmd/server
type Server struct {
	Storage

	BindAddr        string
	DebugMode       bool
	AutoMigrate     bool
	RateLimit       float64
	RateBurst       int
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
	PublicUrl       string
}

func LoadServer() (*Server, error) {
	c := &Server{
		Storage:     LoadStorage(),
		BindAddr:    GetEnvOrDefault("BIND_ADDR", ":8080"),
		DebugMode:   GetBoolEnv("DEBUG_MODE"),
		AutoMigrate: GetBoolEnv("AUTO_MIGRATE"),
		PublicUrl:   strings.TrimSuffix(os.Getenv("PUBLIC_URL"), "/"),
	}

	var err error
	if c.RateLimit, err = GetFloatEnv("RATE_LIMIT_RPS", 0); err != nil {
		return nil, err
	}

	burst, err := GetIntEnv("RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, err
	}
	c.RateBurst = int(burst)

	if c.MaxBodyBytes, err = GetIntEnv("MAX_BODY_BYTES", 10<<20); err != nil {
		return nil, err
	}

	if c.ShutdownTimeout, err = GetDurationEnv("SHUTDOWN_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	return c, nil
}

// SetupLogging installs default slog logger from LOG_LEVEL and LOG_FORMAT
func SetupLogging() error {
	_, thisFile, _, _ := runtime.Caller(0)

	o := logger.Options{
		Format:       logger.Format(strings.ToLower(GetEnvOrDefault("LOG_FORMAT", "text"))),
		RootPath:     path.Dir(path.Dir(path.Dir(thisFile))),
		RequestIdKey: middleware.RequestIDKey,
	}

	lvlErr := o.Level.UnmarshalText([]byte(strings.ToLower(GetEnvOrDefault("LOG_LEVEL", "debug"))))
	if lvlErr != nil {
		o.Level = slog.LevelDebug
	}

	if err := logger.SetupSLog(o); err != nil {
		return err
	}

	if lvlErr != nil {
		return fmt.Errorf("invalid log level specified in LOG_LEVEL, one of debug, info, warn or error expected")
	}

	return nil
}
