package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultRevision is the Klaviyo API version every outbound call is pinned to.
const DefaultRevision = "2023-12-15"

// Config holds all application configuration values. It is built once at
// startup and passed into the handler chain; business logic never reads the
// environment directly.
type Config struct {
	KlaviyoAPIKey   string `koanf:"klaviyo_private_key" validate:"required"`
	DefaultListID   string `koanf:"klaviyo_list_id"`
	FreelanceListID string `koanf:"klaviyo_freelance_list_id"`
	KlaviyoRevision string `koanf:"klaviyo_revision"`
	AllowedOrigin   string `koanf:"allowed_origin"`
	Port            string `koanf:"port"`
}

// LoadConfig reads configuration from environment variables. List IDs are
// allowed to be empty here; routing fails closed per request when the
// selected list is unconfigured.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.KlaviyoRevision == "" {
		cfg.KlaviyoRevision = DefaultRevision
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "https://drayishere.com"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}
