package logger

import (
	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest evaluations.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogEvaluation logs accuracy of one event's predictions.
func (bl *BacktestLogger) LogEvaluation(eventID string, competitors int, mae, rmse, spearman float64) {
	bl.WithFields(logrus.Fields{
		"event_id":    eventID,
		"competitors": competitors,
		"mae":         mae,
		"rmse":        rmse,
		"spearman":    spearman,
	}).Info("Backtest evaluation completed")
}

// LogCalibrationCandidate logs one point of a calibration grid.
func (bl *BacktestLogger) LogCalibrationCandidate(oddsCalibration, oddsVariance, formVariance, mae float64) {
	bl.WithFields(logrus.Fields{
		"odds_calibration": oddsCalibration,
		"odds_variance":    oddsVariance,
		"form_variance":    formVariance,
		"mae":              mae,
	}).Debug("Calibration candidate scored")
}
