package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "WIDGET_"

// MinSessionTTL is the shortest idle timeout Validate accepts.
const MinSessionTTL = time.Second

// Config holds all configuration for the application.
type Config struct {
	APIPort   string `koanf:"api_port"`
	LogFormat string `koanf:"log_format"`
	// LogLevelName is parsed into LogLevel by Load.
	LogLevelName string     `koanf:"log_level"`
	LogLevel     slog.Level `koanf:"-"`

	// Chat settings injected into each page; empty values keep the widget defaults.
	ChatEndpoint string `koanf:"chat_endpoint"`
	ChatModel    string `koanf:"chat_model"`
	ChatAPIKey   string `koanf:"chat_api_key"`
	Greeting     string `koanf:"greeting"`
	Apology      string `koanf:"apology"`

	// PostsDir, when set, replaces the embedded demo posts.
	PostsDir string `koanf:"posts_dir"`

	SessionTTL time.Duration `koanf:"session_ttl"`
	// AllowedOrigins is a comma-separated list of CORS origins.
	AllowedOrigins string `koanf:"allowed_origins"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		APIPort:        "9000",
		LogFormat:      "text",
		LogLevelName:   "info",
		SessionTTL:     30 * time.Minute,
		AllowedOrigins: "*",
	}
}

// Load reads configuration and returns a Config struct.
//
// Sources, lowest precedence first: defaults, the YAML file named by
// WIDGET_CONFIG_FILE (default widget.yml, optional), then WIDGET_*
// environment variables. If a .env file exists in the current directory or
// a parent, it is loaded first; variables already set take precedence over
// .env values.
func Load() (*Config, error) {
	loadDotEnv()

	k := koanf.New(".")
	cfg := Default()

	path := os.Getenv(EnvPrefix + "CONFIG_FILE")
	if path == "" {
		path = "widget.yml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// WIDGET_API_PORT -> api_port, etc.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(cfg.LogLevelName)); err != nil {
		return nil, fmt.Errorf("log_level must be one of debug, info, warn, error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.APIPort == "" {
		return fmt.Errorf("api_port is required")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	if c.SessionTTL < MinSessionTTL {
		return fmt.Errorf("session_ttl must be at least %s", MinSessionTTL)
	}
	if c.PostsDir != "" {
		info, err := os.Stat(c.PostsDir)
		if err != nil {
			return fmt.Errorf("posts_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("posts_dir %s is not a directory", c.PostsDir)
		}
	}
	return nil
}

// Origins splits AllowedOrigins into a list, dropping blanks.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// loadDotEnv tries the current directory first, then walks up to find the
// nearest .env file.
func loadDotEnv() {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ { // Limit search depth
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return // Reached filesystem root
		}
		dir = parent
	}
}
