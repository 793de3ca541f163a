package backtest

import (
	"context"
	"fmt"
)

// WalkForwardWindow calibrates on the preceding events and tests on one
type WalkForwardWindow struct {
	WindowID    int               `json:"window_id"`
	TrainEvents []string          `json:"train_events"`
	Best        CalibrationResult `json:"best"`
	Test        *EventEvaluation  `json:"test"`
}

// WalkForwardResult represents the rolling calibration outcome
type WalkForwardResult struct {
	Windows  []WalkForwardWindow `json:"windows"`
	TrainMAE float64             `json:"train_mae"`
	TestMAE  float64             `json:"test_mae"`
	// OverfitScore is test MAE minus train MAE; large values mean the
	// calibrated parameters do not carry forward.
	OverfitScore float64 `json:"overfit_score"`
}

// RunWalkForward walks data in order. Each window calibrates on the
// previous trainWindow events and evaluates the next with the winner.
func RunWalkForward(ctx context.Context, engine *Engine, data []EventData, grid Grid, trainWindow int) (WalkForwardResult, error) {
	if engine == nil {
		return WalkForwardResult{}, fmt.Errorf("engine is required")
	}
	if trainWindow <= 0 {
		return WalkForwardResult{}, fmt.Errorf("training window must be positive")
	}
	if len(data) <= trainWindow {
		return WalkForwardResult{}, fmt.Errorf("walk-forward needs more than %d events, have %d", trainWindow, len(data))
	}

	var result WalkForwardResult
	for i := trainWindow; i < len(data); i++ {
		train := data[i-trainWindow : i]
		ranked, err := engine.Calibrate(ctx, train, grid)
		if err != nil {
			return WalkForwardResult{}, err
		}
		best := ranked[0]

		tuned, err := engine.WithParams(best.Params)
		if err != nil {
			return WalkForwardResult{}, err
		}
		test, err := tuned.Evaluate(ctx, data[i])
		if err != nil {
			return WalkForwardResult{}, err
		}

		window := WalkForwardWindow{
			WindowID: i - trainWindow + 1,
			Best:     best,
			Test:     test,
		}
		for _, d := range train {
			window.TrainEvents = append(window.TrainEvents, d.Ref.ID)
		}
		result.Windows = append(result.Windows, window)
		result.TrainMAE += best.MeanMAE
		result.TestMAE += test.Accuracy.MAE
	}

	n := float64(len(result.Windows))
	result.TrainMAE /= n
	result.TestMAE /= n
	result.OverfitScore = result.TestMAE - result.TrainMAE
	return result, nil
}
