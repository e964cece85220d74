// Package config loads service configuration from a YAML file plus
// CAREERSCOUT_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// CORSConfig mirrors gin-contrib/cors options.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// RuntimeConfig points at the model runtime the executor dispatches to.
type RuntimeConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PipelineConfig tunes graph execution.
type PipelineConfig struct {
	StaggerDelay time.Duration `mapstructure:"stagger_delay"`
	// Models maps mode -> tier -> model id.
	Models map[string]map[string]string `mapstructure:"models"`
}

// StorageConfig selects the session backend.
type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver     string        `mapstructure:"driver"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// LoggingConfig tunes zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", time.Hour)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization"})
	v.SetDefault("cors.allow_credentials", false)

	v.SetDefault("runtime.url", "http://localhost:8090")
	v.SetDefault("runtime.timeout", 2*time.Minute)

	v.SetDefault("pipeline.stagger_delay", 2*time.Second)
	v.SetDefault("pipeline.models", map[string]map[string]string{
		"fast": {
			"lite":  "gemini-2.5-flash-lite",
			"flash": "gemini-2.5-flash",
			"pro":   "gemini-3-flash-preview",
		},
		"standard": {
			"lite":  "gemini-3-flash-preview",
			"flash": "gemini-3-flash-preview",
			"pro":   "gemini-3-flash-preview",
		},
		"deep": {
			"lite":  "gemini-3-flash-preview",
			"flash": "gemini-3-flash-preview",
			"pro":   "gemini-3-pro-preview",
		},
	})

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.sqlite_path", "careerscout.db")
	v.SetDefault("storage.session_ttl", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// Load reads configuration from the given file (optional) with environment
// overrides like CAREERSCOUT_SERVER_PORT.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CAREERSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.driver %q unsupported (memory or sqlite)", c.Storage.Driver)
	}
	for mode, tiers := range c.Pipeline.Models {
		for _, tier := range []string{"lite", "flash", "pro"} {
			if tiers[tier] == "" {
				return fmt.Errorf("pipeline.models.%s missing %s model", mode, tier)
			}
		}
	}
	return nil
}
