package backtest

import (
	"fmt"

	"github.com/yourusername/peloton/internal/config"
	"github.com/yourusername/peloton/internal/scoring"
)

// EventRef names a completed event to evaluate
type EventRef struct {
	ID    string
	Class scoring.EventClass
}

// Grid lists candidate estimator values for calibration. An empty
// dimension keeps the base parameter value.
type Grid struct {
	OddsCalibration []float64
	OddsVariance    []float64
	FormVariance    []float64
}

// BacktestConfig extends core config with backtest-specific settings
type BacktestConfig struct {
	Events              []EventRef
	ResultsPath         string
	OutputPath          string
	TargetScore         float64
	TrainingWindow      int
	BootstrapIterations int
	BootstrapSeed       int64
	Grid                Grid
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.Config) (BacktestConfig, error) {
	if cfg == nil {
		return BacktestConfig{}, fmt.Errorf("backtest config is required")
	}
	bc := cfg.Backtest

	bt := BacktestConfig{
		ResultsPath:         bc.ResultsPath,
		OutputPath:          bc.OutputPath,
		TargetScore:         bc.TargetScore,
		TrainingWindow:      bc.TrainingWindow,
		BootstrapIterations: bc.BootstrapIterations,
		BootstrapSeed:       bc.BootstrapSeed,
		Grid: Grid{
			OddsCalibration: bc.CalibrationGrid.OddsCalibration,
			OddsVariance:    bc.CalibrationGrid.OddsVariance,
			FormVariance:    bc.CalibrationGrid.FormVariance,
		},
	}
	for _, ev := range bc.Events {
		class, err := scoring.ParseEventClass(ev.Class)
		if err != nil {
			return BacktestConfig{}, fmt.Errorf("backtest event %s: %w", ev.ID, err)
		}
		bt.Events = append(bt.Events, EventRef{ID: ev.ID, Class: class})
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters
func (b BacktestConfig) Validate() error {
	if len(b.Events) == 0 {
		return fmt.Errorf("at least one backtest event is required")
	}
	seen := make(map[string]struct{}, len(b.Events))
	for _, ev := range b.Events {
		if ev.ID == "" {
			return fmt.Errorf("backtest event id is required")
		}
		if _, dup := seen[ev.ID]; dup {
			return fmt.Errorf("duplicate backtest event %s", ev.ID)
		}
		seen[ev.ID] = struct{}{}
	}
	if b.TargetScore < 0 {
		return fmt.Errorf("target score cannot be negative")
	}
	if b.TrainingWindow < 0 {
		return fmt.Errorf("training window cannot be negative")
	}
	if b.BootstrapIterations < 0 {
		return fmt.Errorf("bootstrap iterations cannot be negative")
	}
	return nil
}
