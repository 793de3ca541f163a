package repository

import (
	"fmt"

	"github.com/yourusername/peloton/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	PredictionRun   PredictionRunRepository
	RosterSelection RosterSelectionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		PredictionRun:   NewPostgresPredictionRunRepository(db),
		RosterSelection: NewPostgresRosterSelectionRepository(db),
	}, nil
}
