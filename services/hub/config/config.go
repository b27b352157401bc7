// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads the hub's yaml configuration with environment
// overrides. Secrets should come from the environment, not the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Asana    AsanaConfig    `yaml:"asana"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// RateLimitPerMinute is the per-user-per-process budget for the
	// AI generation and sync endpoints.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
	// SnapshotCacheDir is the badger directory for raw Asana snapshots.
	// Empty means in-memory.
	SnapshotCacheDir string `yaml:"snapshot_cache_dir"`
}

type AuthConfig struct {
	// ProxySecret signs the impersonation cookie. Env: HUB_PROXY_SECRET.
	ProxySecret string `yaml:"proxy_secret"`
	// SecureCookies marks session cookies Secure; disable for local dev.
	SecureCookies bool `yaml:"secure_cookies"`
}

type OpenAIConfig struct {
	// APIKey env: OPENAI_API_KEY.
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type AsanaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	LogDir string `yaml:"log_dir"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:               8080,
			RateLimitPerMinute: 60,
		},
		Database: DatabaseConfig{
			Path: "hub.db",
		},
		Auth: AuthConfig{
			SecureCookies: true,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the yaml file at path (missing file means defaults) and
// applies environment overrides on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Database.Path == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Database.Path, "HUB_DB_PATH")
	setString(&cfg.Database.SnapshotCacheDir, "HUB_SNAPSHOT_CACHE_DIR")
	setString(&cfg.Auth.ProxySecret, "HUB_PROXY_SECRET")
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setString(&cfg.Asana.ClientID, "ASANA_CLIENT_ID")
	setString(&cfg.Asana.ClientSecret, "ASANA_CLIENT_SECRET")
	setString(&cfg.Asana.RedirectURL, "ASANA_REDIRECT_URL")
	setString(&cfg.Logging.Level, "HUB_LOG_LEVEL")
	setString(&cfg.Logging.LogDir, "HUB_LOG_DIR")

	if v := os.Getenv("HUB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("HUB_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.RateLimitPerMinute = n
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
