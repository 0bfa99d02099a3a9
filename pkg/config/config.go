// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the dictate YAML configuration.
// Priority is file over defaults; a handful of environment variables
// override the file for values that change per invocation.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is where Load looks when no path is given.
const DefaultConfigPath = "dictate.yaml"

// Config is the root configuration for all dictate commands.
type Config struct {
	Injector InjectorConfig `yaml:"injector"`
	Provider ProviderConfig `yaml:"provider"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// InjectorConfig selects and tunes the output backend.
type InjectorConfig struct {
	// Backend is the injection target: "xdotool" types into the focused
	// X11 window, "writer" renders onto stdout.
	Backend string `yaml:"backend" validate:"required,oneof=xdotool writer"`

	// TypingDelayMS is the per-keystroke delay for the xdotool backend.
	TypingDelayMS int `yaml:"typing_delay_ms" validate:"gte=0,lte=1000"`
}

// ProviderConfig points at an OpenAI-compatible streaming endpoint that
// produces the tagged segment stream.
type ProviderConfig struct {
	// BaseURL is the API root, e.g. http://localhost:11434/v1 for a local
	// Ollama instance.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// Model is the model identifier passed on each request.
	Model string `yaml:"model"`

	// APIKeyFile is a path to a file holding the bearer token. The key is
	// read into locked memory and never stored in this struct.
	APIKeyFile string `yaml:"api_key_file"`

	// MaxTokens caps the completion length; 0 means provider default.
	MaxTokens int `yaml:"max_tokens" validate:"gte=0"`
}

// ServerConfig configures the dictate serve command.
type ServerConfig struct {
	// ListenAddress is the host:port the HTTP/websocket server binds to.
	ListenAddress string `yaml:"listen_address" validate:"required,hostname_port"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"required,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

var validate = validator.New()

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Injector: InjectorConfig{
			Backend:       "writer",
			TypingDelayMS: 5,
		},
		Provider: ProviderConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3.1:8b",
		},
		Server: ServerConfig{
			ListenAddress: "localhost:8895",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path, merges it over defaults, applies
// environment overrides, and validates the result. A missing file is not an
// error; defaults are returned so dictate works out of the box.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fine: run on defaults.
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DICTATE_INJECTOR"); v != "" {
		cfg.Injector.Backend = v
	}
	if v := os.Getenv("DICTATE_TYPING_DELAY_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Injector.TypingDelayMS = i
		}
	}
	if v := os.Getenv("DICTATE_PROVIDER_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("DICTATE_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("DICTATE_API_KEY_FILE"); v != "" {
		cfg.Provider.APIKeyFile = v
	}
	if v := os.Getenv("DICTATE_LISTEN_ADDRESS"); v != "" {
		cfg.Server.ListenAddress = v
	}
	if v := os.Getenv("DICTATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
