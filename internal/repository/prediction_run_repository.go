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

const (
	errScanPredictionRun = "failed to scan prediction run: %w"

	selectRunColumns = `SELECT id, event_id, event_class, fingerprint, trials, seed, created_at FROM prediction_runs`
)

// PostgresPredictionRunRepository implements PredictionRunRepository for PostgreSQL
type PostgresPredictionRunRepository struct {
	db *database.DB
}

// NewPostgresPredictionRunRepository creates a new prediction run repository
func NewPostgresPredictionRunRepository(db *database.DB) PredictionRunRepository {
	return &PostgresPredictionRunRepository{db: db}
}

// Create inserts a run and its predictions in one transaction
func (r *PostgresPredictionRunRepository) Create(ctx context.Context, run *models.PredictionRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO prediction_runs (id, event_id, event_class, fingerprint, trials, seed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			run.ID, run.EventID, run.EventClass, run.Fingerprint, run.Trials, run.Seed, run.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create prediction run: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range run.Predictions {
			batch.Queue(`
				INSERT INTO predictions (
					run_id, competitor_key, name, team, cost, category,
					strength_mean, strength_variance, expected_total, expected_finish,
					expected_assist, expected_bonus, win_probability, podium_probability, signals_used
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
				run.ID, p.Key, p.Name, p.Team, p.Cost, string(p.Category),
				p.StrengthMean, p.StrengthVariance, p.ExpectedTotal, p.ExpectedFinish,
				p.ExpectedAssist, p.ExpectedBonus, p.WinProbability, p.PodiumProbability, p.SignalsUsed,
			)
		}
		if batch.Len() == 0 {
			return nil
		}

		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("failed to insert prediction %s: %w", run.Predictions[i].Key, err)
			}
		}
		return results.Close()
	})
}

// GetByID retrieves a run with its predictions
func (r *PostgresPredictionRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error) {
	return r.getOne(ctx, selectRunColumns+` WHERE id = $1`, id)
}

// GetLatestByEvent retrieves the most recent run for an event
func (r *PostgresPredictionRunRepository) GetLatestByEvent(ctx context.Context, eventID string) (*models.PredictionRun, error) {
	return r.getOne(ctx, selectRunColumns+` WHERE event_id = $1 ORDER BY created_at DESC LIMIT 1`, eventID)
}

// GetByFingerprint retrieves the newest run for an event whose inputs match fingerprint
func (r *PostgresPredictionRunRepository) GetByFingerprint(ctx context.Context, eventID, fingerprint string) (*models.PredictionRun, error) {
	return r.getOne(ctx,
		selectRunColumns+` WHERE event_id = $1 AND fingerprint = $2 ORDER BY created_at DESC LIMIT 1`,
		eventID, fingerprint,
	)
}

// ListByEvent retrieves run headers for an event, newest first. Predictions are not loaded.
func (r *PostgresPredictionRunRepository) ListByEvent(ctx context.Context, eventID string, limit int) ([]*models.PredictionRun, error) {
	rows, err := r.db.Query(ctx, selectRunColumns+` WHERE event_id = $1 ORDER BY created_at DESC LIMIT $2`, eventID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PredictionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Delete removes a run; predictions and selections cascade
func (r *PostgresPredictionRunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM prediction_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete prediction run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PostgresPredictionRunRepository) getOne(ctx context.Context, query string, args ...interface{}) (*models.PredictionRun, error) {
	run, err := scanRun(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}

	predictions, err := r.loadPredictions(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Predictions = predictions
	return run, nil
}

func (r *PostgresPredictionRunRepository) loadPredictions(ctx context.Context, runID uuid.UUID) ([]models.Prediction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT competitor_key, name, team, cost, category,
			strength_mean, strength_variance, expected_total, expected_finish,
			expected_assist, expected_bonus, win_probability, podium_probability, signals_used
		FROM predictions WHERE run_id = $1 ORDER BY expected_total DESC, competitor_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var out []models.Prediction
	for rows.Next() {
		var (
			p        models.Prediction
			category string
		)
		if err := rows.Scan(
			&p.Key, &p.Name, &p.Team, &p.Cost, &category,
			&p.StrengthMean, &p.StrengthVariance, &p.ExpectedTotal, &p.ExpectedFinish,
			&p.ExpectedAssist, &p.ExpectedBonus, &p.WinProbability, &p.PodiumProbability, &p.SignalsUsed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		p.Category = models.Category(category)
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (*models.PredictionRun, error) {
	run := &models.PredictionRun{}
	err := row.Scan(&run.ID, &run.EventID, &run.EventClass, &run.Fingerprint, &run.Trials, &run.Seed, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf(errScanPredictionRun, err)
	}
	return run, nil
}
