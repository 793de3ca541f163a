// Package config provides configuration management for the Peloton application.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/peloton/internal/aggregate"
	"github.com/yourusername/peloton/internal/estimator"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/simulator"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Model      ModelConfig      `mapstructure:"model" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Breakaway  BreakawayConfig  `mapstructure:"breakaway"`
	Scoring    ScoringConfig    `mapstructure:"scoring" validate:"required"`
	Roster     RosterConfig     `mapstructure:"roster" validate:"required"`
	DataSource DataSourceConfig `mapstructure:"data_source" validate:"required"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	HealthPort  int    `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// DatabaseConfig represents database connection configuration. Persistence
// is skipped when Enabled is false.
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ModelConfig holds the strength estimator's variances and calibration.
type ModelConfig struct {
	PriorVariance        float64 `mapstructure:"prior_variance" validate:"gt=0"`
	MissingPriorVariance float64 `mapstructure:"missing_prior_variance" validate:"gt=0"`
	FormVariance         float64 `mapstructure:"form_variance" validate:"gt=0"`
	HistoryBaseVariance  float64 `mapstructure:"history_base_variance" validate:"gt=0"`
	HistoryAgeDecay      float64 `mapstructure:"history_age_decay" validate:"gte=0"`
	MaxHistoryAge        int     `mapstructure:"max_history_age" validate:"gte=0"`
	OddsVariance         float64 `mapstructure:"odds_variance" validate:"gt=0"`
	OddsCalibration      float64 `mapstructure:"odds_calibration" validate:"gt=0"`
}

// SimulationConfig represents Monte Carlo settings
type SimulationConfig struct {
	Trials    int   `mapstructure:"trials" validate:"gt=0"`
	Workers   int   `mapstructure:"workers" validate:"gte=0"`
	Seed      int64 `mapstructure:"seed"`
	BlockSize int   `mapstructure:"block_size" validate:"gte=0"`
}

// BreakawayConfig represents the rank-to-sector step function
type BreakawayConfig struct {
	Tiers []TierConfig `mapstructure:"tiers" validate:"dive"`
}

// TierConfig is one step of the breakaway function
type TierConfig struct {
	MaxRank int `mapstructure:"max_rank" validate:"gt=0"`
	Sectors int `mapstructure:"sectors" validate:"gte=0"`
}

// ScoringConfig points at the scoring tables file
type ScoringConfig struct {
	TablesPath   string `mapstructure:"tables_path"`
	DefaultClass string `mapstructure:"default_class" validate:"required,eventclass"`
}

// RosterConfig represents roster selection rules
type RosterConfig struct {
	Size      int            `mapstructure:"size" validate:"gt=0"`
	Budget    int            `mapstructure:"budget" validate:"gte=0"`
	Minima    map[string]int `mapstructure:"minima" validate:"dive,keys,category,endkeys,gte=0"`
	NodeLimit int            `mapstructure:"node_limit" validate:"gte=0"`
}

// DataSourceConfig represents where competitor pools come from
type DataSourceConfig struct {
	Type               string  `mapstructure:"type" validate:"required,oneof=file http"`
	Path               string  `mapstructure:"path" validate:"required_if=Type file"`
	BaseURL            string  `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey             string  `mapstructure:"api_key"`
	TimeoutSeconds     int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	RetryAttempts      int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst     int     `mapstructure:"rate_limit_burst" validate:"gte=0"`
}

// CacheConfig represents in-memory prediction caching
type CacheConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	TTLSeconds     int  `mapstructure:"ttl_seconds" validate:"gte=0"`
	CleanupSeconds int  `mapstructure:"cleanup_seconds" validate:"gte=0"`
	MaxEntries     int  `mapstructure:"max_entries" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	ResultsPath         string            `mapstructure:"results_path"`
	OutputPath          string            `mapstructure:"output_path"`
	Events              []EventConfig     `mapstructure:"events" validate:"dive"`
	TargetScore         float64           `mapstructure:"target_score" validate:"gte=0"`
	TrainingWindow      int               `mapstructure:"training_window" validate:"gte=0"`
	BootstrapIterations int               `mapstructure:"bootstrap_iterations" validate:"gte=0"`
	BootstrapSeed       int64             `mapstructure:"bootstrap_seed"`
	CalibrationGrid     CalibrationConfig `mapstructure:"calibration_grid"`
}

// CalibrationConfig lists candidate values for the calibration grid search
type CalibrationConfig struct {
	OddsCalibration []float64 `mapstructure:"odds_calibration" validate:"dive,gt=0"`
	OddsVariance    []float64 `mapstructure:"odds_variance" validate:"dive,gt=0"`
	FormVariance    []float64 `mapstructure:"form_variance" validate:"dive,gt=0"`
}

// ScheduleConfig represents periodic prediction refresh
type ScheduleConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RefreshCron string        `mapstructure:"refresh_cron" validate:"omitempty,cronspec"`
	Events      []EventConfig `mapstructure:"events" validate:"dive"`
}

// EventConfig identifies an event to predict
type EventConfig struct {
	ID    string `mapstructure:"id" validate:"required"`
	Class string `mapstructure:"class" validate:"required,eventclass"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
	// VersionStage selects the secret version, e.g. AWSPREVIOUS during rotation.
	VersionStage string `mapstructure:"version_stage"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// EstimatorParams converts the model section.
func (c *Config) EstimatorParams() estimator.Params {
	return estimator.Params{
		PriorVariance:        c.Model.PriorVariance,
		MissingPriorVariance: c.Model.MissingPriorVariance,
		FormVariance:         c.Model.FormVariance,
		HistoryBaseVariance:  c.Model.HistoryBaseVariance,
		HistoryAgeDecay:      c.Model.HistoryAgeDecay,
		MaxHistoryAge:        c.Model.MaxHistoryAge,
		OddsVariance:         c.Model.OddsVariance,
		OddsCalibration:      c.Model.OddsCalibration,
	}
}

// SimulatorConfig converts the simulation section.
func (c *Config) SimulatorConfig() simulator.Config {
	return simulator.Config{
		Trials:    c.Simulation.Trials,
		Workers:   c.Simulation.Workers,
		Seed:      c.Simulation.Seed,
		BlockSize: c.Simulation.BlockSize,
	}
}

// BreakawayTiers converts the breakaway section. An empty section yields the
// default tiers.
func (c *Config) BreakawayTiers() aggregate.BreakawayConfig {
	if len(c.Breakaway.Tiers) == 0 {
		return aggregate.DefaultBreakaway()
	}
	out := aggregate.BreakawayConfig{Tiers: make([]aggregate.Tier, len(c.Breakaway.Tiers))}
	for i, t := range c.Breakaway.Tiers {
		out.Tiers[i] = aggregate.Tier{MaxRank: t.MaxRank, Sectors: t.Sectors}
	}
	return out
}

// RosterMinima returns the category quotas keyed by category.
func (c *Config) RosterMinima() map[models.Category]int {
	out := make(map[models.Category]int, len(c.Roster.Minima))
	for k, v := range c.Roster.Minima {
		cat, err := models.ParseCategory(k)
		if err != nil || v == 0 {
			continue
		}
		out[cat] = v
	}
	return out
}

// CacheTTL returns the prediction cache expiry.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// CacheCleanupInterval returns the prediction cache janitor interval.
func (c *Config) CacheCleanupInterval() time.Duration {
	return time.Duration(c.Cache.CleanupSeconds) * time.Second
}
