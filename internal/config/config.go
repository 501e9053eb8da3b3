// Package config loads the hub configuration from a YAML file, a .env
// file, and process environment variables, in that priority order
// (environment wins).
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the hub's environment variables, e.g.
// KALIHUB_REMOTE_DATABASEURL overrides remote.databaseurl.
const envPrefix = "KALIHUB_"

// Config is the full hub configuration.
type Config struct {
	Snapshot struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"snapshot"`

	Remote struct {
		DatabaseURL string        `koanf:"databaseurl" validate:"omitempty,url"`
		FeedURL     string        `koanf:"feedurl" validate:"omitempty,url"`
		ProbeURL    string        `koanf:"probeurl" validate:"omitempty,url"`
		Timeout     time.Duration `koanf:"timeout"`
	} `koanf:"remote"`

	Store struct {
		Default string `koanf:"default"`
	} `koanf:"store"`

	Supplier struct {
		CatchAll string `koanf:"catchall"`
	} `koanf:"supplier"`

	Sync struct {
		Interval time.Duration `koanf:"interval"`
	} `koanf:"sync"`

	Log struct {
		Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	} `koanf:"log"`
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Remote.Timeout == 0 {
		c.Remote.Timeout = 10 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Remote.ProbeURL == "" {
		c.Remote.ProbeURL = c.Remote.DatabaseURL
	}
	return validator.New().Struct(c)
}

// Load reads configuration from configFile (missing file is not an
// error), then .env, then the process environment, and validates the
// result.
func Load(configFile string) (Config, error) {
	var cfg Config
	k := koanf.New(".")

	// 1. YAML config file, lowest priority.
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("WARN: error loading config file %q: %v", configFile, err)
		}
	}

	// 2. .env file.
	envTransformer := func(key string) string {
		key = strings.ToLower(key)
		key = strings.TrimPrefix(key, strings.ToLower(envPrefix))
		return strings.ReplaceAll(key, "_", ".")
	}
	if envFileMap, err := godotenv.Read(".env"); err == nil {
		envMap := make(map[string]any)
		for key, value := range envFileMap {
			envMap[envTransformer(key)] = value
		}
		if err := k.Load(confmap.Provider(envMap, "."), nil); err != nil {
			log.Printf("WARN: error loading .env config: %v", err)
		}
	} else if !os.IsNotExist(err) {
		log.Printf("WARN: error reading .env file: %v", err)
	}

	// 3. Process environment, highest priority.
	if err := k.Load(env.Provider(envPrefix, ".", envTransformer), nil); err != nil {
		log.Printf("WARN: error loading system env vars: %v", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
