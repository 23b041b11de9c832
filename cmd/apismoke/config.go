package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-apismoke/pkg/schema"
)

// Config holds settings shared by the subcommands. Values come from the
// optional -config YAML file; flags override them.
type Config struct {
	BaseURL    string            `yaml:"base_url"`
	Timeout    time.Duration     `yaml:"timeout"`
	Headers    map[string]string `yaml:"headers"`
	ResultsKey string            `yaml:"results_key"`
	LogLevel   string            `yaml:"log_level"`
}

const defaultTimeout = 10 * time.Second

func defaultConfig() Config {
	return Config{
		Timeout:    defaultTimeout,
		ResultsKey: schema.DefaultResultsKey,
		LogLevel:   "warn",
	}
}

// loadConfig reads path, expanding environment variables, over the
// defaults. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ResultsKey == "" {
		cfg.ResultsKey = schema.DefaultResultsKey
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	return cfg, nil
}

// resolveURL joins relative targets onto BaseURL.
func (c Config) resolveURL(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") || c.BaseURL == "" {
		return target
	}
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(target, "/")
}
