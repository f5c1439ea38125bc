package config

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application. All values
// are read once at process start and treated as immutable afterwards.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Alerting  AlertingConfig  `yaml:"alerting"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the dashboard HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// UpstreamConfig holds the whale-tracker API client configuration.
type UpstreamConfig struct {
	BaseURL            string  `yaml:"baseURL"`
	BulkTimeoutMillis  int64   `yaml:"bulkTimeoutMillis"`
	ProbeTimeoutMillis int64   `yaml:"probeTimeoutMillis"`
	MaxRetryAttempts   int     `yaml:"maxRetryAttempts"`
	RetryDelayMillis   int64   `yaml:"retryDelayMillis"`
	RateLimit          float64 `yaml:"rateLimit"`
	RateBurst          int     `yaml:"rateBurst"`
}

// SchedulerConfig holds the recurring refresh configuration.
type SchedulerConfig struct {
	RefreshIntervalMillis int64 `yaml:"refreshIntervalMillis"`
	TradesLimit           int   `yaml:"tradesLimit"`
}

// AlertingConfig holds the Telegram status probe configuration.
type AlertingConfig struct {
	CacheTTLSeconds int `yaml:"cacheTTLSeconds"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// LoadConfig loads configuration from a YAML file and applies defaults
// for anything left unset.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.baseURL must be set in %s", path)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.Upstream.BulkTimeoutMillis == 0 {
		cfg.Upstream.BulkTimeoutMillis = 60000
		logrus.Infof("Upstream.BulkTimeoutMillis not set, defaulting to %d ms", cfg.Upstream.BulkTimeoutMillis)
	}
	if cfg.Upstream.ProbeTimeoutMillis == 0 {
		cfg.Upstream.ProbeTimeoutMillis = 5000
		logrus.Infof("Upstream.ProbeTimeoutMillis not set, defaulting to %d ms", cfg.Upstream.ProbeTimeoutMillis)
	}
	if cfg.Upstream.MaxRetryAttempts == 0 {
		cfg.Upstream.MaxRetryAttempts = 3
	}
	if cfg.Upstream.RetryDelayMillis == 0 {
		cfg.Upstream.RetryDelayMillis = 1000
	}
	if cfg.Upstream.RateBurst == 0 {
		cfg.Upstream.RateBurst = 5
	}

	if cfg.Scheduler.RefreshIntervalMillis == 0 {
		cfg.Scheduler.RefreshIntervalMillis = 30000
		logrus.Infof("Scheduler.RefreshIntervalMillis not set, defaulting to %d ms", cfg.Scheduler.RefreshIntervalMillis)
	}
	if cfg.Scheduler.TradesLimit == 0 {
		cfg.Scheduler.TradesLimit = 50
	}

	if cfg.Alerting.CacheTTLSeconds == 0 {
		cfg.Alerting.CacheTTLSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
