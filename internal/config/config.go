package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the application configuration, read from the environment.
type Config struct {
	Server     ServerConfig
	Session    SessionConfig
	RateLimit  RateLimitConfig
	Dictionary DictionaryConfig
	Flashcard  FlashcardConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        `env:"PORT"             env-default:"8080"`
	Env            string        `env:"ENV"              env-default:"development"`
	GinMode        string        `env:"GIN_MODE"`
	StaticCacheAge time.Duration `env:"STATIC_CACHE_AGE" env-default:"5m"`
	ReadTimeout    time.Duration `env:"SERVER_READ_TIMEOUT"     env-default:"30s"`
	WriteTimeout   time.Duration `env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout    time.Duration `env:"SERVER_IDLE_TIMEOUT"     env-default:"120s"`
	ShutdownWait   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Timeout      time.Duration `env:"SESSION_TIMEOUT"  env-default:"2h"`
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE"   env-default:"2h"`
	SweepEvery   time.Duration `env:"SESSION_SWEEP"    env-default:"5m"`
}

// RateLimitConfig holds per-client token bucket settings for POST routes.
type RateLimitConfig struct {
	RPS   int `env:"RATE_LIMIT_RPS"   env-default:"5"`
	Burst int `env:"RATE_LIMIT_BURST" env-default:"10"`
}

// DictionaryConfig holds lookup service settings.
type DictionaryConfig struct {
	BaseURL string        `env:"DICTIONARY_URL"     env-default:"https://api.dictionaryapi.dev/api/v2/entries/en_US"`
	Timeout time.Duration `env:"DICTIONARY_TIMEOUT" env-default:"10s"`
}

// FlashcardConfig holds per-session behaviour settings.
type FlashcardConfig struct {
	SelectWait     time.Duration `env:"SELECT_WAIT"      env-default:"5s"`
	BannerDuration time.Duration `env:"BANNER_DURATION"  env-default:"3s"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" env-default:"1048576"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// IsProduction reports whether the server runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release" || strings.EqualFold(c.Server.Env, "production")
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cleanenv cannot.
func (c *Config) Validate() error {
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0 (got %d)", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0 (got %d)", c.RateLimit.Burst)
	}
	if c.Session.Timeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT must be > 0 (got %v)", c.Session.Timeout)
	}
	if c.Session.SweepEvery <= 0 {
		return fmt.Errorf("SESSION_SWEEP must be > 0 (got %v)", c.Session.SweepEvery)
	}
	if c.Flashcard.BannerDuration <= 0 {
		return fmt.Errorf("BANNER_DURATION must be > 0 (got %v)", c.Flashcard.BannerDuration)
	}
	if c.Flashcard.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0 (got %d)", c.Flashcard.MaxUploadBytes)
	}
	if c.Dictionary.BaseURL == "" {
		return fmt.Errorf("DICTIONARY_URL must not be empty")
	}
	return nil
}

