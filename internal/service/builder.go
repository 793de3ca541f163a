package service

import (
	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/cache"
	"github.com/yourusername/peloton/internal/config"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/repository"
	"github.com/yourusername/peloton/internal/scoring"
)

// Services bundles the services built from one configuration.
type Services struct {
	Prediction *PredictionService
	Roster     *RosterService
}

// NewFromConfig builds the prediction and roster services. repos may be nil
// to run without persistence.
func NewFromConfig(cfg *config.Config, tables scoring.Tables, repos *repository.Repositories, log *logrus.Logger) (*Services, error) {
	opts := PredictionOptions{
		Params:     cfg.EstimatorParams(),
		Simulation: cfg.SimulatorConfig(),
		Breakaway:  cfg.BreakawayTiers(),
		Tables:     tables,
	}
	if cfg.Cache.Enabled {
		opts.Cache = cache.NewPredictionCache(cfg.CacheTTL(), cfg.CacheCleanupInterval(), cfg.Cache.MaxEntries)
	}

	var rosterRepo repository.RosterSelectionRepository
	if repos != nil {
		opts.Runs = repos.PredictionRun
		rosterRepo = repos.RosterSelection
	}

	predictions, err := NewPredictionService(opts, log)
	if err != nil {
		return nil, err
	}

	rules := RosterRules{
		Size:   cfg.Roster.Size,
		Budget: cfg.Roster.Budget,
		Minima: cfg.RosterMinima(),
	}
	opt := optimizer.New(log, optimizer.Options{NodeLimit: cfg.Roster.NodeLimit})

	return &Services{
		Prediction: predictions,
		Roster:     NewRosterService(opt, rules, rosterRepo, log),
	}, nil
}
