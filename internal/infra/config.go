package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application settings. Sensitive values can be overridden
// through environment variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		CoinGecko struct {
			BaseURL    string `yaml:"base_url"`
			ProAPIKey  string `yaml:"pro_api_key"`
			DemoAPIKey string `yaml:"demo_api_key"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"coingecko"`
		GoldAPI struct {
			BaseURL    string `yaml:"base_url"`
			APIKey     string `yaml:"api_key"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"goldapi"`
	} `yaml:"api"`

	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`

	Storage struct {
		// Path overrides the default OS config-dir database location.
		// Mainly useful for tests and portable installs.
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration that works without any file or
// credentials: CoinGecko's free tier needs no key, and GoldAPI simply
// stays unconfigured until a key is supplied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.App.Name = "GSR Watch"
	cfg.App.Version = "dev"
	cfg.API.CoinGecko.BaseURL = "https://api.coingecko.com/api/v3"
	cfg.API.CoinGecko.TimeoutSec = 10
	cfg.API.GoldAPI.BaseURL = "https://www.goldapi.io/api"
	cfg.API.GoldAPI.TimeoutSec = 10
	cfg.Server.ListenAddr = "127.0.0.1:8787"
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads and parses the configuration file. A missing file is not
// an error; the built-in defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !hasPrefix(c.API.CoinGecko.BaseURL, "http://") && !hasPrefix(c.API.CoinGecko.BaseURL, "https://") {
		return fmt.Errorf("invalid CoinGecko base URL: %s", c.API.CoinGecko.BaseURL)
	}
	if !hasPrefix(c.API.GoldAPI.BaseURL, "http://") && !hasPrefix(c.API.GoldAPI.BaseURL, "https://") {
		return fmt.Errorf("invalid GoldAPI base URL: %s", c.API.GoldAPI.BaseURL)
	}
	if c.API.CoinGecko.TimeoutSec <= 0 || c.API.GoldAPI.TimeoutSec <= 0 {
		return fmt.Errorf("source timeout must be positive")
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}
	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv applies environment variables over file values so API
// keys never need to live in the config file.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("GSR_COINGECKO_PRO_KEY"); key != "" {
		cfg.API.CoinGecko.ProAPIKey = key
	}
	if key := os.Getenv("GSR_COINGECKO_DEMO_KEY"); key != "" {
		cfg.API.CoinGecko.DemoAPIKey = key
	}
	if key := os.Getenv("GSR_GOLDAPI_KEY"); key != "" {
		cfg.API.GoldAPI.APIKey = key
	}
	if addr := os.Getenv("GSR_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
}
