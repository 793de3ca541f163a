package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/peloton/internal/database"
	"github.com/yourusername/peloton/internal/models"
)

const selectSelectionColumns = `SELECT id, run_id, objective, status, keys, total_cost, total_score, reason, created_at FROM roster_selections`

// PostgresRosterSelectionRepository implements RosterSelectionRepository for PostgreSQL
type PostgresRosterSelectionRepository struct {
	db *database.DB
}

// NewPostgresRosterSelectionRepository creates a new roster selection repository
func NewPostgresRosterSelectionRepository(db *database.DB) RosterSelectionRepository {
	return &PostgresRosterSelectionRepository{db: db}
}

// Create inserts a roster selection
func (r *PostgresRosterSelectionRepository) Create(ctx context.Context, s *models.RosterSelection) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	keys := s.Keys
	if keys == nil {
		keys = []string{}
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO roster_selections (id, run_id, objective, status, keys, total_cost, total_score, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.RunID, s.Objective, s.Status, keys, s.TotalCost, s.TotalScore, s.Reason, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create roster selection: %w", err)
	}
	return nil
}

// GetByRunID retrieves every selection recorded for a run, newest first
func (r *PostgresRosterSelectionRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]*models.RosterSelection, error) {
	rows, err := r.db.Query(ctx, selectSelectionColumns+` WHERE run_id = $1 ORDER BY created_at DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster selections: %w", err)
	}
	defer rows.Close()

	var out []*models.RosterSelection
	for rows.Next() {
		s, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetLatest retrieves the newest selection for a run and objective
func (r *PostgresRosterSelectionRepository) GetLatest(ctx context.Context, runID uuid.UUID, objective string) (*models.RosterSelection, error) {
	return scanSelection(r.db.QueryRow(ctx,
		selectSelectionColumns+` WHERE run_id = $1 AND objective = $2 ORDER BY created_at DESC LIMIT 1`,
		runID, objective,
	))
}

func scanSelection(row pgx.Row) (*models.RosterSelection, error) {
	s := &models.RosterSelection{}
	err := row.Scan(&s.ID, &s.RunID, &s.Objective, &s.Status, &s.Keys, &s.TotalCost, &s.TotalScore, &s.Reason, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan roster selection: %w", err)
	}
	return s, nil
}
