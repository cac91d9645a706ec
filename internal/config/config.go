// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config loads the explicit, enumerated configuration record
// this service recognizes (spec §9 "Duck-typed configuration" decision):
// every option the application reads is a named field here, never an
// ad-hoc environment lookup scattered through the codebase.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the default config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths lists config file locations searched in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/transcript-index/config.yaml",
}

// Config is the single explicit configuration record for the service.
// There is no fallback to reading os.Getenv directly elsewhere in the
// codebase. Some fields are loaded and validated here but read nowhere
// else: the data and upload directories, OpenAIAPIKey, CORSOrigins,
// MaxSearchResults, DefaultPageSize, MaxConcurrency, the task-poll
// settings, and ServerHost/ServerPort.
type Config struct {
	// Required.
	DatabaseURL     string `koanf:"database_url"`
	MeiliHost       string `koanf:"meili_host"`
	MeiliMasterKey  string `koanf:"meili_master_key"`

	// Optional, with defaults.
	MeiliTimeout      time.Duration `koanf:"meili_timeout"`
	HTMLDataDir       string        `koanf:"html_data_dir"`
	XMLDataDir        string        `koanf:"xml_data_dir"`
	ProcessedDataDir  string        `koanf:"processed_data_dir"`
	UploadDir         string        `koanf:"upload_dir"`
	OpenAIAPIKey      string        `koanf:"openai_api_key"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	MaxSearchResults  int           `koanf:"max_search_results"`
	DefaultPageSize   int           `koanf:"default_page_size"`

	// Ingest tuning (spec §4.4).
	MaxConcurrency int `koanf:"max_concurrency"`

	// Sync tuning (spec §4.6).
	SyncBatchSize   int           `koanf:"sync_batch_size"`
	TaskPollTimeout time.Duration `koanf:"task_poll_timeout"`
	TaskPollBackoff time.Duration `koanf:"task_poll_backoff"`

	// Listen address; no command in this repository starts an HTTP server.
	ServerHost string `koanf:"server_host"`
	ServerPort int    `koanf:"server_port"`

	// Process-local state the command surface (spec §6) reads/writes
	// directly: the Progress Bus's BadgerDB recovery store and the Sync
	// Engine's watermark JSON file (spec §3 "Sync watermark").
	ProgressStoreDir string `koanf:"progress_store_dir"`
	WatermarkPath    string `koanf:"watermark_path"`

	// Logging (spec §9 ambient stack; teacher's internal/logging.Config).
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

func defaults() *Config {
	return &Config{
		MeiliTimeout:     30 * time.Second,
		MaxSearchResults: 1000,
		DefaultPageSize:  20,
		MaxConcurrency:   4,
		SyncBatchSize:    500,
		TaskPollTimeout:  300 * time.Second,
		TaskPollBackoff:  2 * time.Second,
		ServerHost:       "0.0.0.0",
		ServerPort:       8080,
		ProgressStoreDir: "./data/progress",
		WatermarkPath:    "./data/watermark.json",
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// legacyAliases maps a deprecated environment variable name to the
// canonical koanf key it should populate when the canonical key is
// unset (spec §6: "Legacy aliases ... honored when primary names are
// unset"). Resolved once at load time, never at use time.
var legacyAliases = map[string]string{
	"MEILISEARCH_URL":        "meili_host",
	"MEILISEARCH_MASTER_KEY": "meili_master_key",
}

// Load reads configuration from defaults, an optional YAML file, then
// environment variables (highest priority), resolving legacy aliases
// before validation.
func Load(envPrefix string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := resolveConfigPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	applyLegacyAliases(k, envPrefix)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyLegacyAliases(k *koanf.Koanf, envPrefix string) {
	for legacy, canonical := range legacyAliases {
		if k.String(canonical) != "" {
			continue
		}
		if v := osLookupEnv(legacy); v != "" {
			_ = k.Set(canonical, v)
		}
	}
}

func resolveConfigPath() string {
	if p := osLookupEnv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if fileExists(p) {
			return p
		}
	}
	return ""
}
