package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Bind           string
	LogLevel       zerolog.Level
	CORSOrigin     string
	LsblkPath      string
	LsblkTimeout   time.Duration
	MetricsEnabled bool
}

// fileConfig is the YAML shape. Everything is optional; missing keys keep
// their defaults.
type fileConfig struct {
	HTTP struct {
		Bind string `yaml:"bind"`
	} `yaml:"http"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	CORS struct {
		Origin string `yaml:"origin"`
	} `yaml:"cors"`
	Lsblk struct {
		Path    string `yaml:"path"`
		Timeout string `yaml:"timeout"`
	} `yaml:"lsblk"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func defaults() Config {
	return Config{
		Bind:           "127.0.0.1:9620",
		LogLevel:       zerolog.InfoLevel,
		LsblkPath:      "lsblk",
		LsblkTimeout:   5 * time.Second,
		MetricsEnabled: true,
	}
}

// Load reads the YAML file at path (a missing file is fine) and then
// applies BLKD_* environment overrides, env winning over file.
func Load(path string) Config {
	cfg := defaults()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			var fc fileConfig
			if yaml.Unmarshal(data, &fc) == nil {
				applyFile(&cfg, fc)
			}
		}
	}
	applyEnv(&cfg)
	return cfg
}

// FromEnv loads the file named by BLKD_CONFIG, if any, plus env overrides.
func FromEnv() Config {
	return Load(os.Getenv("BLKD_CONFIG"))
}

func applyFile(cfg *Config, fc fileConfig) {
	if fc.HTTP.Bind != "" {
		cfg.Bind = fc.HTTP.Bind
	}
	if fc.Logging.Level != "" {
		if l, err := zerolog.ParseLevel(fc.Logging.Level); err == nil {
			cfg.LogLevel = l
		}
	}
	if fc.CORS.Origin != "" {
		cfg.CORSOrigin = fc.CORS.Origin
	}
	if fc.Lsblk.Path != "" {
		cfg.LsblkPath = fc.Lsblk.Path
	}
	if fc.Lsblk.Timeout != "" {
		if d, err := time.ParseDuration(fc.Lsblk.Timeout); err == nil && d > 0 {
			cfg.LsblkTimeout = d
		}
	}
	if fc.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *fc.Metrics.Enabled
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BLKD_HTTP_BIND"); v != "" {
		cfg.Bind = v
	}
	if v := os.Getenv("BLKD_LOG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		}
	}
	if v := os.Getenv("BLKD_CORS_ORIGIN"); v != "" {
		cfg.CORSOrigin = v
	}
	if v := os.Getenv("BLKD_LSBLK_PATH"); v != "" {
		cfg.LsblkPath = v
	}
	if v := os.Getenv("BLKD_LSBLK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.LsblkTimeout = d
		}
	}
	if v := os.Getenv("BLKD_METRICS"); v != "" {
		cfg.MetricsEnabled = v == "1" || v == "true"
	}
}
