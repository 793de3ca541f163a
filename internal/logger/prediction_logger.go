package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for prediction runs.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPosterior logs one competitor's fused strength estimate.
func (pl *PredictionLogger) LogPosterior(eventID, key string, mean, variance float64, signalsUsed int) {
	pl.WithFields(logrus.Fields{
		"event_id":     eventID,
		"key":          key,
		"mean":         mean,
		"variance":     variance,
		"signals_used": signalsUsed,
	}).Debug("Posterior fused")
}

// LogSimulation logs a completed simulation pass.
func (pl *PredictionLogger) LogSimulation(eventID string, competitors, trials, workers int, seed int64, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"event_id":    eventID,
		"competitors": competitors,
		"trials":      trials,
		"workers":     workers,
		"seed":        seed,
		"duration_ms": duration.Milliseconds(),
	}).Info("Simulation completed")
}

// LogPredictionRun logs a completed prediction run.
func (pl *PredictionLogger) LogPredictionRun(runID, eventID, eventClass string, competitors int, topKey string, topExpected float64, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"run_id":       runID,
		"event_id":     eventID,
		"event_class":  eventClass,
		"competitors":  competitors,
		"top_key":      topKey,
		"top_expected": topExpected,
		"duration_ms":  duration.Milliseconds(),
	}).Info("Prediction run completed")
}

// LogCacheHit logs a prediction served from cache.
func (pl *PredictionLogger) LogCacheHit(eventID, fingerprint string) {
	pl.WithFields(logrus.Fields{
		"event_id":    eventID,
		"fingerprint": fingerprint,
	}).Debug("Prediction served from cache")
}
