package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/peloton/internal/backtest"
	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/service"
)

var calibrate bool

func init() {
	backtestCmd.Flags().BoolVar(&calibrate, "calibrate", false, "Also grid-search estimator parameters")
	backtestCmd.Flags().BoolVar(&outputJSON, "json", false, "Output JSON")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Score predictions and rosters against completed events",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		btConfig, err := backtest.FromConfig(cfg)
		if err != nil {
			return fmt.Errorf("invalid backtest config: %w", err)
		}

		// Backtest runs are never persisted.
		offline, err := service.NewFromConfig(cfg, tables, nil, appLog)
		if err != nil {
			return err
		}
		opt := optimizer.New(appLog, optimizer.Options{NodeLimit: cfg.Roster.NodeLimit})
		engine := backtest.NewEngine(offline.Prediction, opt, offline.Roster.Rules(),
			datasource.NewFileSource(btConfig.ResultsPath), btConfig.TargetScore, appLog)

		data, err := engine.Load(ctx, btConfig.Events)
		if err != nil {
			return err
		}
		summary, err := engine.Run(ctx, data)
		if err != nil {
			return err
		}

		var results []backtest.CalibrationResult
		if calibrate {
			results, err = engine.Calibrate(ctx, data, btConfig.Grid)
			if err != nil {
				return err
			}
		}

		if outputJSON {
			return writeJSON(struct {
				Summary     backtest.Summary             `json:"summary"`
				Calibration []backtest.CalibrationResult `json:"calibration,omitempty"`
			}{summary, results})
		}
		fmt.Print(backtest.GenerateConsoleReport(summary))
		for i, r := range results {
			fmt.Printf("%2d. odds_calibration=%.2f odds_variance=%.2f form_variance=%.2f  MAE %.2f  RMSE %.2f  Spearman %.3f\n",
				i+1, r.Params.OddsCalibration, r.Params.OddsVariance, r.Params.FormVariance,
				r.MeanMAE, r.MeanRMSE, r.MeanSpearman)
		}
		return nil
	},
}
