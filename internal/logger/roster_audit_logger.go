package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// RosterAuditLogger provides an audit trail of roster decisions.
type RosterAuditLogger struct {
	*logrus.Entry
}

// NewRosterAuditLogger creates a new roster audit logger.
func NewRosterAuditLogger(baseLogger *logrus.Logger) *RosterAuditLogger {
	return &RosterAuditLogger{
		Entry: baseLogger.WithField("component", "roster_audit"),
	}
}

// LogSelection logs a selected roster.
func (rl *RosterAuditLogger) LogSelection(runID, objective string, keys []string, totalCost int, totalScore float64, nodes int) {
	rl.WithFields(logrus.Fields{
		"run_id":      runID,
		"objective":   objective,
		"keys":        strings.Join(keys, ","),
		"roster_size": len(keys),
		"total_cost":  totalCost,
		"total_score": totalScore,
		"nodes":       nodes,
	}).Info("Roster selection recorded")
}

// LogInfeasible logs a problem with no roster.
func (rl *RosterAuditLogger) LogInfeasible(runID, objective, status, reason string) {
	rl.WithFields(logrus.Fields{
		"run_id":    runID,
		"objective": objective,
		"status":    status,
		"reason":    reason,
	}).Info("Infeasible roster problem recorded")
}

// LogNotOptimal logs a search stopped by its node limit.
func (rl *RosterAuditLogger) LogNotOptimal(runID, objective string, nodes int, reason string) {
	rl.WithFields(logrus.Fields{
		"run_id":    runID,
		"objective": objective,
		"nodes":     nodes,
		"reason":    reason,
	}).Warn("Roster solver did not reach optimality")
}
