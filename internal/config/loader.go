package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment overrides so unrelated
// variables never leak into the configuration.
const envPrefix = "LASTRO_"

// Load reads configuration from an optional YAML file, then overrides
// with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LASTRO_RETRIEVAL__INITIAL_K, ...)
//  2. YAML config file (configPath, skipped when empty or missing)
//  3. Hardcoded defaults
//
// Environment variables map to nested keys with a double underscore as
// the section separator, so single underscores stay available for
// field names:
//
//	LASTRO_DATA_DIR                -> data_dir
//	LASTRO_VECTOR_STORE__COMPRESS  -> vector_store.compress
//	LASTRO_RETRIEVAL__INITIAL_K    -> retrieval.initial_k
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// Missing file falls through to defaults.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults restores defaults that an explicit empty value in the
// file or environment would otherwise blank out.
func applyDefaults(cfg *Config) {
	def := NewDefaultConfig()

	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Embeddings.Provider == "" {
		cfg.Embeddings.Provider = def.Embeddings.Provider
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = def.Embeddings.Model
	}
	if cfg.Retrieval.InitialK == 0 {
		cfg.Retrieval.InitialK = def.Retrieval.InitialK
	}
	if cfg.Retrieval.FinalK == 0 {
		cfg.Retrieval.FinalK = def.Retrieval.FinalK
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
}
