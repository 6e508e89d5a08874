// Package config manages application configuration from environment variables,
// config files, and default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via environment
// variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN) or through config.yaml.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Store     StoreConfig     `mapstructure:"store"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// TelegramConfig holds the transport credentials and the source chat.
type TelegramConfig struct {
	Token       string `mapstructure:"token"        validate:"required"`
	ChatID      int64  `mapstructure:"chat_id"      validate:"required"`
	PollTimeout int    `mapstructure:"poll_timeout" validate:"min=0,max=60"`
}

// GeminiConfig holds the classifier credentials and generation parameters.
type GeminiConfig struct {
	APIKey      string        `mapstructure:"api_key"     validate:"required"`
	Model       string        `mapstructure:"model"       validate:"required"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// StoreConfig holds the paths of the persisted record store and image directory.
type StoreConfig struct {
	Path     string `mapstructure:"path"      validate:"required"`
	ImageDir string `mapstructure:"image_dir" validate:"required"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SchedulerConfig holds the batch pass interval for daemon mode.
type SchedulerConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"min=1m"`
}

// Load loads and validates configuration from:
// 1. Default values
// 2. The config file at path (optional)
// 3. BOT_* environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no defaults, so bind them explicitly for env-only setups
	for _, key := range []string{"telegram.token", "telegram.chat_id", "gemini.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	// Allow missing config file; env vars and defaults still apply
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.poll_timeout", 0)

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 1.0)
	v.SetDefault("gemini.timeout", 2*time.Minute)
	v.SetDefault("gemini.max_retries", 2)
	v.SetDefault("gemini.retry_delay", 5*time.Second)

	v.SetDefault("store.path", "data/meals.json")
	v.SetDefault("store.image_dir", "assets/images")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("scheduler.interval", 15*time.Minute)
}
