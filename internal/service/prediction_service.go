// Package service wires the prediction pipeline and roster selection
// together with caching, persistence, logging and metrics.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/aggregate"
	"github.com/yourusername/peloton/internal/cache"
	"github.com/yourusername/peloton/internal/estimator"
	"github.com/yourusername/peloton/internal/logger"
	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/repository"
	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/simulator"
)

// Event is one race to predict.
type Event struct {
	ID    string
	Class scoring.EventClass
	Pool  []models.Competitor
}

// PredictionOptions configure a PredictionService. Cache and Runs are optional.
type PredictionOptions struct {
	Params     estimator.Params
	Simulation simulator.Config
	Breakaway  aggregate.BreakawayConfig
	Tables     scoring.Tables
	Cache      *cache.PredictionCache
	Runs       repository.PredictionRunRepository
}

// PredictionService runs normalize, estimate and simulate for an event.
type PredictionService struct {
	params     estimator.Params
	simulation simulator.Config
	breakaway  aggregate.BreakawayConfig
	aggregator *aggregate.Aggregator
	tables     scoring.Tables
	cache      *cache.PredictionCache
	runs       repository.PredictionRunRepository
	logger     *logrus.Logger
	predLog    *logger.PredictionLogger
}

// NewPredictionService validates opts and creates the service
func NewPredictionService(opts PredictionOptions, log *logrus.Logger) (*PredictionService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := opts.Params.Validate(); err != nil {
		return nil, err
	}
	agg, err := aggregate.New(opts.Breakaway)
	if err != nil {
		return nil, err
	}
	if opts.Tables == nil {
		opts.Tables = scoring.DefaultTables()
	}

	return &PredictionService{
		params:     opts.Params,
		simulation: opts.Simulation,
		breakaway:  opts.Breakaway,
		aggregator: agg,
		tables:     opts.Tables,
		cache:      opts.Cache,
		runs:       opts.Runs,
		logger:     log,
		predLog:    logger.NewPredictionLogger(log),
	}, nil
}

// WithParams returns a copy of the service using params, sharing everything
// else. Used by calibration sweeps.
func (s *PredictionService) WithParams(params estimator.Params) (*PredictionService, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	clone := *s
	clone.params = params
	return &clone, nil
}

// Params returns the estimator parameters in use
func (s *PredictionService) Params() estimator.Params {
	return s.params
}

// Predict produces a prediction run for ev. Runs are memoized by event and
// input fingerprint when the simulation seed is pinned.
func (s *PredictionService) Predict(ctx context.Context, ev Event) (*models.PredictionRun, error) {
	start := time.Now()

	if len(ev.Pool) == 0 {
		return nil, fmt.Errorf("event %s: %w", ev.ID, models.ErrEmptyPool)
	}
	table, err := s.tables.For(ev.Class)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	fingerprint, err := s.fingerprint(ev)
	if err != nil {
		return nil, err
	}
	key := cache.CacheKey{EventID: ev.ID, Fingerprint: fingerprint}
	cacheable := s.cache != nil && s.simulation.Seed != 0
	if cacheable {
		if run := s.cache.Get(ctx, key); run != nil {
			s.predLog.LogCacheHit(ev.ID, fingerprint)
			return run, nil
		}
	}

	estimates, err := estimator.EstimatePool(ev.Pool, s.params)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}

	n := len(ev.Pool)
	means := make([]float64, n)
	sds := make([]float64, n)
	teams := make([]string, n)
	for i, est := range estimates {
		means[i] = est.Posterior.Mean
		sds[i] = est.Posterior.StdDev()
		teams[i] = ev.Pool[i].Team
		s.predLog.LogPosterior(ev.ID, est.Key, est.Posterior.Mean, est.Posterior.Variance, est.SignalsUsed)
	}

	sim := simulator.New(s.simulation)
	agg, err := s.aggregator.Run(ctx, sim, means, sds, teams, table)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", ev.ID, err)
	}
	s.predLog.LogSimulation(ev.ID, n, agg.Stats.Trials, agg.Stats.Workers, agg.Stats.Seed, agg.Stats.Duration)
	metrics.RecordSimulation(agg.Stats.Trials, agg.Stats.Duration.Seconds())

	run := &models.PredictionRun{
		ID:          uuid.New(),
		EventID:     ev.ID,
		EventClass:  string(ev.Class),
		Fingerprint: fingerprint,
		Trials:      agg.Stats.Trials,
		Seed:        agg.Stats.Seed,
		Predictions: make([]models.Prediction, n),
		CreatedAt:   time.Now().UTC(),
	}
	for i, c := range ev.Pool {
		comp := agg.Components[i]
		run.Predictions[i] = models.Prediction{
			Key:               c.Key,
			Name:              c.Name,
			Team:              c.Team,
			Cost:              c.Cost,
			Category:          c.Category,
			StrengthMean:      estimates[i].Posterior.Mean,
			StrengthVariance:  estimates[i].Posterior.Variance,
			ExpectedTotal:     comp.Total(),
			ExpectedFinish:    comp.Finish,
			ExpectedAssist:    comp.Assist,
			ExpectedBonus:     comp.Bonus,
			WinProbability:    comp.WinProbability,
			PodiumProbability: comp.PodiumProbability,
			SignalsUsed:       estimates[i].SignalsUsed,
		}
	}
	sort.SliceStable(run.Predictions, func(i, j int) bool {
		a, b := run.Predictions[i], run.Predictions[j]
		if a.ExpectedTotal != b.ExpectedTotal {
			return a.ExpectedTotal > b.ExpectedTotal
		}
		return a.Key < b.Key
	})

	if s.runs != nil {
		if err := s.runs.Create(ctx, run); err != nil {
			return nil, fmt.Errorf("event %s: failed to persist prediction run: %w", ev.ID, err)
		}
	}
	if cacheable {
		s.cache.Set(ctx, key, run)
	}

	metrics.RecordPrediction(string(ev.Class))
	metrics.UpdatePoolSize(ev.ID, n)
	top := run.Predictions[0]
	s.predLog.LogPredictionRun(run.ID.String(), ev.ID, run.EventClass, n, top.Key, top.ExpectedTotal, time.Since(start))

	return run, nil
}

// fingerprint hashes every input that changes a run's output.
func (s *PredictionService) fingerprint(ev Event) (string, error) {
	payload := struct {
		Class     scoring.EventClass
		Params    estimator.Params
		Trials    int
		Seed      int64
		BlockSize int
		Breakaway aggregate.BreakawayConfig
		Finish    []int
		Assist    []int
		Bonus     int
		Pool      []models.Competitor
	}{
		Class:     ev.Class,
		Params:    s.params,
		Trials:    s.simulation.Trials,
		Seed:      s.simulation.Seed,
		BlockSize: s.simulation.BlockSize,
		Breakaway: s.breakaway,
		Pool:      ev.Pool,
	}
	if table, err := s.tables.For(ev.Class); err == nil {
		payload.Finish = table.FinishSchedule()
		payload.Assist = table.AssistSchedule()
		payload.Bonus = table.SectorBonus()
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint event %s: %w", ev.ID, err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8]), nil
}
