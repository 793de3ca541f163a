package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	log := New(Options{Level: "chatty", Output: &bytes.Buffer{}})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log = New(Options{Level: "debug", Output: &bytes.Buffer{}})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewProductionWritesJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Level: "chatty", Environment: "production", Output: buf})
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	entry := parseLogOutput(buf)
	require.NotNil(t, entry, "invalid level warning is JSON")
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, "chatty", entry["requested_level"])
}

func TestNewDevelopmentUsesText(t *testing.T) {
	log := New(Options{Level: "warn", Environment: "development", Output: &bytes.Buffer{}})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestPredictionLoggerRun(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogPredictionRun("run-1", "tdf-2024", "grand_tour", 176, "pogacar", 812.5, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "prediction", logEntry["component"])
	assert.Equal(t, "tdf-2024", logEntry["event_id"])
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
}

func TestPredictionLoggerSimulation(t *testing.T) {
	log, buf := setupTestLogger()
	pl := NewPredictionLogger(log)

	pl.LogSimulation("rvv-2024", 120, 10000, 4, 42, time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(10000), logEntry["trials"])
	assert.Equal(t, "Simulation completed", logEntry["msg"])
}

func TestRosterAuditLoggerSelection(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewRosterAuditLogger(log)

	al.LogSelection("run-1", "maximize_score", []string{"a", "b"}, 45, 225, 3)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "roster_audit", logEntry["component"])
	assert.Equal(t, "a,b", logEntry["keys"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestRosterAuditLoggerNotOptimalIsWarning(t *testing.T) {
	log, buf := setupTestLogger()
	al := NewRosterAuditLogger(log)

	al.LogNotOptimal("run-1", "maximize_score", 200000, "node limit")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, float64(200000), logEntry["nodes"])
}

func TestBacktestLoggerEvaluation(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log)

	bl.LogEvaluation("lbl-2024", 150, 12.5, 20.1, 0.61)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, 0.61, logEntry["spearman"])
}
