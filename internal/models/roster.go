package models

import (
	"time"

	"github.com/google/uuid"
)

// RosterSelection is a persisted optimizer outcome for a prediction run.
type RosterSelection struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RunID      uuid.UUID `db:"run_id" json:"run_id"`
	Objective  string    `db:"objective" json:"objective"`
	Status     string    `db:"status" json:"status"`
	Keys       []string  `db:"keys" json:"keys"`
	TotalCost  int       `db:"total_cost" json:"total_cost"`
	TotalScore float64   `db:"total_score" json:"total_score"`
	Reason     string    `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// IsFeasible reports whether the selection holds a roster.
func (s *RosterSelection) IsFeasible() bool {
	return len(s.Keys) > 0 && s.Reason == ""
}
