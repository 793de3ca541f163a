package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/peloton/internal/database"
	"github.com/yourusername/peloton/internal/models"
)

func TestNewRepositoriesRequiresDB(t *testing.T) {
	repos, err := NewRepositories(nil)
	assert.Error(t, err)
	assert.Nil(t, repos)
}

func sampleRun(eventID string) *models.PredictionRun {
	return &models.PredictionRun{
		EventID:     eventID,
		EventClass:  "one_day",
		Fingerprint: "abc123",
		Trials:      1000,
		Seed:        42,
		Predictions: []models.Prediction{
			{Key: "pog", Name: "Pogacar", Team: "UAE", Cost: 30, Category: models.CategoryAllRounder,
				StrengthMean: 2.1, StrengthVariance: 0.2, ExpectedTotal: 180, ExpectedFinish: 170,
				ExpectedAssist: 10, WinProbability: 0.4, PodiumProbability: 0.7, SignalsUsed: 3},
			{Key: "vdp", Name: "van der Poel", Team: "ADC", Cost: 25, Category: models.CategorySprinter,
				StrengthMean: 1.8, StrengthVariance: 0.3, ExpectedTotal: 150, ExpectedFinish: 140,
				ExpectedAssist: 10, WinProbability: 0.3, PodiumProbability: 0.6, SignalsUsed: 2},
		},
	}
}

func TestPredictionRunRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := sampleRun("flanders-2026")
	require.NoError(t, repos.PredictionRun.Create(ctx, run))
	assert.NotEqual(t, uuid.Nil, run.ID)

	got, err := repos.PredictionRun.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.EventID, got.EventID)
	require.Len(t, got.Predictions, 2)
	assert.Equal(t, "pog", got.Predictions[0].Key)
	assert.Equal(t, models.CategoryAllRounder, got.Predictions[0].Category)

	byFP, err := repos.PredictionRun.GetByFingerprint(ctx, "flanders-2026", "abc123")
	require.NoError(t, err)
	assert.Equal(t, run.ID, byFP.ID)

	_, err = repos.PredictionRun.GetByFingerprint(ctx, "flanders-2026", "other")
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err := repos.PredictionRun.ListByEvent(ctx, "flanders-2026", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repos.PredictionRun.Delete(ctx, run.ID))
	assert.ErrorIs(t, repos.PredictionRun.Delete(ctx, run.ID), models.ErrNotFound)
}

func TestRosterSelectionRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	run := sampleRun("roubaix-2026")
	require.NoError(t, repos.PredictionRun.Create(ctx, run))

	sel := &models.RosterSelection{
		RunID:      run.ID,
		Objective:  "maximize_score",
		Status:     "optimal",
		Keys:       []string{"pog", "vdp"},
		TotalCost:  55,
		TotalScore: 330,
	}
	require.NoError(t, repos.RosterSelection.Create(ctx, sel))

	infeasible := &models.RosterSelection{
		RunID:     run.ID,
		Objective: "minimize_cost",
		Status:    "infeasible",
		Reason:    "no roster reaches target",
	}
	require.NoError(t, repos.RosterSelection.Create(ctx, infeasible))

	latest, err := repos.RosterSelection.GetLatest(ctx, run.ID, "maximize_score")
	require.NoError(t, err)
	assert.Equal(t, []string{"pog", "vdp"}, latest.Keys)
	assert.True(t, latest.IsFeasible())

	all, err := repos.RosterSelection.GetByRunID(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = repos.RosterSelection.GetLatest(ctx, uuid.New(), "maximize_score")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
