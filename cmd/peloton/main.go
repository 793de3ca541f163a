// Package main provides the peloton command line interface.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/peloton/internal/config"
	"github.com/yourusername/peloton/internal/database"
	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/logger"
	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/repository"
	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	noPersist  bool

	appLog   *logrus.Logger
	cfg      *config.Config
	tables   scoring.Tables
	db       *database.DB
	source   datasource.PoolSource
	services *service.Services
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().BoolVar(&noPersist, "no-persist", false, "Skip the database even when enabled in config")

	rootCmd.AddCommand(predictCmd, optimizeCmd, cheapestCmd, backtestCmd, serveCmd)
}

var rootCmd = &cobra.Command{
	Use:          "peloton",
	Short:        "Cycling fantasy predictions and roster selection",
	Long:         `Estimates rider strength from heterogeneous signals, simulates races to expected fantasy points, and selects optimal rosters.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.ValidateEnvironment(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.New(logger.Options{Level: cfg.App.LogLevel, Environment: cfg.App.Environment})
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	var err error
	tables = scoring.DefaultTables()
	if cfg.Scoring.TablesPath != "" {
		tables, err = scoring.LoadTables(cfg.Scoring.TablesPath)
		if err != nil {
			return err
		}
	}

	source, err = datasource.NewPoolSource(cfg.DataSource, appLog)
	if err != nil {
		return err
	}

	var repos *repository.Repositories
	if cfg.Database.Enabled && !noPersist {
		db, err = database.Initialize(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return err
		}
	}

	services, err = service.NewFromConfig(cfg, tables, repos, appLog)
	return err
}

// resolveClass falls back to the configured default event class.
func resolveClass(raw string) (scoring.EventClass, error) {
	if raw == "" {
		raw = cfg.Scoring.DefaultClass
	}
	return scoring.ParseEventClass(raw)
}
