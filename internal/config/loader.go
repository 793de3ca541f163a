// Package config provides configuration management for the Peloton application.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/yourusername/peloton/internal/estimator"
	"github.com/yourusername/peloton/internal/simulator"
)

const envPrefix = "PELOTON"

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	// Read and expand the configuration file if it exists
	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// If file doesn't exist, continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	p := estimator.DefaultParams()

	v.SetDefault("app.name", "peloton")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("model.prior_variance", p.PriorVariance)
	v.SetDefault("model.missing_prior_variance", p.MissingPriorVariance)
	v.SetDefault("model.form_variance", p.FormVariance)
	v.SetDefault("model.history_base_variance", p.HistoryBaseVariance)
	v.SetDefault("model.history_age_decay", p.HistoryAgeDecay)
	v.SetDefault("model.max_history_age", p.MaxHistoryAge)
	v.SetDefault("model.odds_variance", p.OddsVariance)
	v.SetDefault("model.odds_calibration", p.OddsCalibration)

	v.SetDefault("simulation.trials", simulator.DefaultTrials)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.block_size", simulator.DefaultBlockSize)

	v.SetDefault("scoring.default_class", "one_day")

	v.SetDefault("roster.size", 9)
	v.SetDefault("roster.budget", 100)

	v.SetDefault("data_source.type", "file")
	v.SetDefault("data_source.path", "data/pools")
	v.SetDefault("data_source.timeout_seconds", 30)
	v.SetDefault("data_source.retry_attempts", 3)
	v.SetDefault("data_source.rate_limit_per_second", 2)
	v.SetDefault("data_source.rate_limit_burst", 1)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_seconds", 900)
	v.SetDefault("cache.cleanup_seconds", 1800)
	v.SetDefault("cache.max_entries", 256)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("backtest.output_path", "output/backtest")
	v.SetDefault("backtest.results_path", "data/results")
	v.SetDefault("backtest.training_window", 3)
	v.SetDefault("backtest.bootstrap_iterations", 1000)
	v.SetDefault("schedule.refresh_cron", "0 */6 * * *")
}

// ReloadFromEnv reloads the configuration from PELOTON_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}

	return nil
}
