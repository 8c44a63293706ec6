// Package config resolves server settings from flags, falling back to the
// environment and then to defaults.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by FromEnv.
const (
	EnvPort           = "COMPENSATION_PORT"
	EnvDB             = "COMPENSATION_DB"
	EnvAllowedOrigins = "COMPENSATION_ALLOWED_ORIGINS"
	EnvLogLevel       = "COMPENSATION_LOG_LEVEL"
)

// Server captures HTTP server level configuration.
type Server struct {
	Port            int
	DBPath          string
	AllowedOrigins  []string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s Server) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// Defaults returns the development configuration.
func Defaults() Server {
	return Server{
		Port:            8080,
		DBPath:          "compensation.db",
		AllowedOrigins:  []string{"*"},
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: 30 * time.Second,
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv(getenv func(string) string) (Server, error) {
	cfg := Defaults()

	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return Server{}, fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Port = port
	}
	if v := getenv(EnvDB); v != "" {
		cfg.DBPath = v
	}
	if v := getenv(EnvAllowedOrigins); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := getenv(EnvLogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Server{}, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}
	return cfg, nil
}

// Parse resolves the configuration. Flags win over the environment.
func Parse(args []string, getenv func(string) string) (Server, error) {
	cfg, err := FromEnv(getenv)
	if err != nil {
		return Server{}, err
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	port := fs.Int("port", cfg.Port, "HTTP server port")
	dbPath := fs.String("db", cfg.DBPath, `SQLite database path (":memory:" for in-memory)`)
	origins := fs.String("origins", strings.Join(cfg.AllowedOrigins, ","), "Comma-separated CORS allowed origins")
	level := fs.String("log-level", cfg.LogLevel.String(), "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}

	cfg.Port = *port
	cfg.DBPath = *dbPath
	cfg.AllowedOrigins = splitList(*origins)
	if err := cfg.LogLevel.UnmarshalText([]byte(*level)); err != nil {
		return Server{}, fmt.Errorf("log-level: %w", err)
	}
	return cfg, nil
}

// Load parses the process flags and environment.
func Load() (Server, error) {
	return Parse(os.Args[1:], os.Getenv)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
