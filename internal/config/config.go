package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Log      LogConfig
	Research ResearchConfig
}

type ServerConfig struct {
	Host string
	Port int
	// Token guards the management routes; empty leaves them open.
	Token     string
	RateLimit float64 // chat requests per second per client
	RateBurst int
	// AllowedOrigins is a comma-separated CORS allow list; empty disables CORS.
	AllowedOrigins string
}

type StorageConfig struct {
	ProfilePath string
	DataDir     string
}

type LogConfig struct {
	Level string
}

type ResearchConfig struct {
	PollInterval string
	Weekly       bool
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c ServerConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// PollDuration parses Research.PollInterval, falling back to one second.
func (c ResearchConfig) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		slog.Warn("invalid research poll interval, using default 1s", "value", c.PollInterval)
		return time.Second
	}
	return d
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      5000,
			RateLimit: 5,
			RateBurst: 10,
		},
		Storage: StorageConfig{
			ProfilePath: "user_profile.json",
			DataDir:     defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Research: ResearchConfig{
			PollInterval: "1s",
			Weekly:       true,
		},
	}
}

// Load builds the configuration from defaults, the JSON config file at
// $XDG_CONFIG_HOME/healthbot/config.json, a .env file in the working
// directory, and HEALTHBOT_* environment variables, in increasing order of
// precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "[WARN] could not read .env file: %v\n", err)
	}
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid config: server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Storage.ProfilePath == "" {
		return Config{}, fmt.Errorf("invalid config: storage.profile_path must not be empty")
	}
	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "healthbot-data"
		}
	}
	return filepath.Join(dir, "healthbot")
}

func configFilePath() string {
	if p := os.Getenv("HEALTHBOT_CONFIG_FILE"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "healthbot", "config.json")
}
