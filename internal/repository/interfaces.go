package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/yourusername/peloton/internal/models"
)

// PredictionRunRepository defines the interface for prediction run data access
type PredictionRunRepository interface {
	Create(ctx context.Context, run *models.PredictionRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error)
	GetLatestByEvent(ctx context.Context, eventID string) (*models.PredictionRun, error)
	GetByFingerprint(ctx context.Context, eventID, fingerprint string) (*models.PredictionRun, error)
	ListByEvent(ctx context.Context, eventID string, limit int) ([]*models.PredictionRun, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RosterSelectionRepository defines the interface for roster selection data access
type RosterSelectionRepository interface {
	Create(ctx context.Context, selection *models.RosterSelection) error
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.RosterSelection, error)
	GetLatest(ctx context.Context, runID uuid.UUID, objective string) (*models.RosterSelection, error)
}
