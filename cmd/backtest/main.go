// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/backtest"
	"github.com/yourusername/peloton/internal/config"
	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/logger"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/service"
)

func main() {
	var (
		configPath  = flag.String("config", "config/config.yaml", "Path to config file")
		mode        = flag.String("mode", "all", "Backtest mode: evaluate, calibrate, walk-forward, bootstrap, all")
		output      = flag.String("output", "", "Override output directory for reports")
		resultsPath = flag.String("results", "", "Override directory holding pools and results")
		target      = flag.Float64("target", -1, "Override the cheapest-roster target score")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := loadConfigWithSecrets(ctx, *configPath)
	log := logger.New(logger.Options{Level: cfg.App.LogLevel, Environment: cfg.App.Environment})

	btConfig := buildBacktestConfig(cfg, *output, *resultsPath, *target, log)
	engine := buildEngine(cfg, btConfig, log)

	log.WithFields(logrus.Fields{
		"mode":   *mode,
		"events": len(btConfig.Events),
	}).Info("Starting backtest")

	data, err := engine.Load(ctx, btConfig.Events)
	if err != nil {
		log.Fatalf("Failed to load events: %v", err)
	}
	if err := os.MkdirAll(btConfig.OutputPath, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	runMode(ctx, engine, btConfig, data, *mode, log)
}

func loadConfigWithSecrets(ctx context.Context, path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		logrus.Fatalf("Failed to load secrets: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func buildBacktestConfig(cfg *config.Config, output, resultsPath string, target float64, log *logrus.Logger) backtest.BacktestConfig {
	btConfig, err := backtest.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid backtest config: %v", err)
	}
	if output != "" {
		btConfig.OutputPath = output
	}
	if btConfig.OutputPath == "" {
		btConfig.OutputPath = "./output"
	}
	if resultsPath != "" {
		btConfig.ResultsPath = resultsPath
	}
	if target >= 0 {
		btConfig.TargetScore = target
	}
	return btConfig
}

// buildEngine runs predictions without persistence; backtest runs are
// not written to the prediction store.
func buildEngine(cfg *config.Config, btConfig backtest.BacktestConfig, log *logrus.Logger) *backtest.Engine {
	tables := scoring.DefaultTables()
	if cfg.Scoring.TablesPath != "" {
		var err error
		tables, err = scoring.LoadTables(cfg.Scoring.TablesPath)
		if err != nil {
			log.Fatalf("Failed to load scoring tables: %v", err)
		}
	}

	services, err := service.NewFromConfig(cfg, tables, nil, log)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}
	opt := optimizer.New(log, optimizer.Options{NodeLimit: cfg.Roster.NodeLimit})
	source := datasource.NewFileSource(btConfig.ResultsPath)

	return backtest.NewEngine(services.Prediction, opt, services.Roster.Rules(), source, btConfig.TargetScore, log)
}

func runMode(ctx context.Context, engine *backtest.Engine, cfg backtest.BacktestConfig, data []backtest.EventData, mode string, log *logrus.Logger) {
	switch mode {
	case "evaluate":
		runEvaluate(ctx, engine, cfg, data, log)
	case "calibrate":
		runCalibrate(ctx, engine, cfg, data, log)
	case "walk-forward":
		runWalkForward(ctx, engine, cfg, data, log)
	case "bootstrap":
		runBootstrap(cfg, runEvaluate(ctx, engine, cfg, data, log), log)
	case "all":
		summary := runEvaluate(ctx, engine, cfg, data, log)
		runBootstrap(cfg, summary, log)
		runCalibrate(ctx, engine, cfg, data, log)
		runWalkForward(ctx, engine, cfg, data, log)
	default:
		log.Fatalf("Unsupported mode: %s", mode)
	}
}

func runEvaluate(ctx context.Context, engine *backtest.Engine, cfg backtest.BacktestConfig, data []backtest.EventData, log *logrus.Logger) backtest.Summary {
	summary, err := engine.Run(ctx, data)
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}
	fmt.Print(backtest.GenerateConsoleReport(summary))

	path := filepath.Join(cfg.OutputPath, "backtest_summary.csv")
	if err := backtest.GenerateCSVExport(summary, path); err != nil {
		log.Fatalf("Failed to export summary: %v", err)
	}
	log.WithField("path", path).Info("Summary exported")
	return summary
}

func runBootstrap(cfg backtest.BacktestConfig, summary backtest.Summary, log *logrus.Logger) {
	res, err := backtest.BootstrapMAE(summary.Evaluations, backtest.BootstrapConfig{
		Iterations:      cfg.BootstrapIterations,
		ConfidenceLevel: 0.95,
		Seed:            cfg.BootstrapSeed,
	})
	if err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"iterations": res.Iterations,
		"mean_mae":   res.Mean,
		"lower":      res.Lower,
		"upper":      res.Upper,
	}).Info("Bootstrap MAE interval")
	writeJSON(filepath.Join(cfg.OutputPath, "bootstrap.json"), res, log)
}

func runCalibrate(ctx context.Context, engine *backtest.Engine, cfg backtest.BacktestConfig, data []backtest.EventData, log *logrus.Logger) {
	results, err := engine.Calibrate(ctx, data, cfg.Grid)
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}
	best := results[0]
	log.WithFields(logrus.Fields{
		"candidates":       len(results),
		"odds_calibration": best.Params.OddsCalibration,
		"odds_variance":    best.Params.OddsVariance,
		"form_variance":    best.Params.FormVariance,
		"mean_mae":         best.MeanMAE,
	}).Info("Best calibration")

	path := filepath.Join(cfg.OutputPath, "calibration.csv")
	if err := backtest.GenerateCalibrationCSV(results, path); err != nil {
		log.Fatalf("Failed to export calibration: %v", err)
	}
}

func runWalkForward(ctx context.Context, engine *backtest.Engine, cfg backtest.BacktestConfig, data []backtest.EventData, log *logrus.Logger) {
	res, err := backtest.RunWalkForward(ctx, engine, data, cfg.Grid, cfg.TrainingWindow)
	if err != nil {
		log.Fatalf("Walk-forward failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"windows":       len(res.Windows),
		"train_mae":     res.TrainMAE,
		"test_mae":      res.TestMAE,
		"overfit_score": res.OverfitScore,
	}).Info("Walk-forward completed")
	writeJSON(filepath.Join(cfg.OutputPath, "walk_forward.json"), res, log)
}

func writeJSON(path string, v interface{}, log *logrus.Logger) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
}
