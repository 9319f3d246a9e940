package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Argus
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Screener    ScreenerConfig   `toml:"screener"`
	Analysis    AnalysisConfig   `toml:"analysis"`
	Scheduler   SchedulerConfig  `toml:"scheduler"`
	Logging     LoggingConfig    `toml:"logging"`
}

// IsProduction reports whether the environment is set to production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds persistence configuration
type StorageConfig struct {
	Path       string `toml:"path"`        // badger database directory
	ReportPath string `toml:"report_path"` // generated reports and charts
}

// MarketDataConfig holds market data client configuration
type MarketDataConfig struct {
	BaseURL     string `toml:"base_url"`
	RateLimit   int    `toml:"rate_limit"` // requests per second
	Timeout     string `toml:"timeout"`
	HistoryDays int    `toml:"history_days"`
	NewsLimit   int    `toml:"news_limit"`
}

// GetTimeout parses the client timeout, defaulting to 30s.
func (c *MarketDataConfig) GetTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// GeminiConfig holds generative AI configuration.
// API keys never live here: LoadGeminiCredentials reads them from the
// environment and hands them to the key pool.
type GeminiConfig struct {
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
	MaxAttempts     int     `toml:"max_attempts"` // generation retries across rotated keys
}

// ScreenerConfig holds stock screening configuration
type ScreenerConfig struct {
	MinMarketCap float64 `toml:"min_market_cap"`
	MaxResults   int     `toml:"max_results"`
	Concurrency  int     `toml:"concurrency"`
}

// AnalysisConfig holds composite scoring weights and agent settings
type AnalysisConfig struct {
	FundamentalWeight   float64 `toml:"fundamental_weight"`
	TechnicalWeight     float64 `toml:"technical_weight"`
	NewsWeight          float64 `toml:"news_weight"`
	MaxConcurrentAgents int     `toml:"max_concurrent_agents"`
}

// SchedulerConfig holds background pipeline configuration
type SchedulerConfig struct {
	Enabled    bool   `toml:"enabled"`
	ScreenCron string `toml:"screen_cron"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path:       "data/argus",
			ReportPath: "reports",
		},
		MarketData: MarketDataConfig{
			BaseURL:     "https://query1.finance.yahoo.com",
			RateLimit:   20,
			Timeout:     "30s",
			HistoryDays: 365,
			NewsLimit:   10,
		},
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     0.3,
			MaxOutputTokens: 2048,
			MaxAttempts:     3,
		},
		Screener: ScreenerConfig{
			MinMarketCap: 1_000_000_000,
			MaxResults:   50,
			Concurrency:  8,
		},
		Analysis: AnalysisConfig{
			FundamentalWeight:   0.4,
			TechnicalWeight:     0.3,
			NewsWeight:          0.3,
			MaxConcurrentAgents: 3,
		},
		Scheduler: SchedulerConfig{
			Enabled:    false,
			ScreenCron: "0 18 * * 1-5",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from TOML files, merging onto defaults.
// Missing files are skipped; later files override earlier ones.
// Environment overrides are applied last.
func LoadConfig(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides applies ARGUS_* environment variables over loaded config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARGUS_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("ARGUS_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ARGUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ARGUS_DATA_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("ARGUS_REPORT_PATH"); v != "" {
		cfg.Storage.ReportPath = v
	}
	if v := os.Getenv("ARGUS_GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("ARGUS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ARGUS_LOG_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}
	if v := os.Getenv("ARGUS_SCHEDULER_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Scheduler.Enabled = enabled
		}
	}
	if v := os.Getenv("ARGUS_SCREEN_CRON"); v != "" {
		cfg.Scheduler.ScreenCron = v
	}
}
