package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/optimizer"
	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/service"
)

// EventRef identifies an event to keep fresh
type EventRef struct {
	ID    string
	Class scoring.EventClass
}

// Snapshot is the latest prediction and roster for one event
type Snapshot struct {
	Run         *models.PredictionRun `json:"run"`
	Roster      *optimizer.Result     `json:"roster,omitempty"`
	RefreshedAt time.Time             `json:"refreshed_at"`
}

// Refresher re-predicts configured events and keeps the latest snapshots
type Refresher struct {
	source   datasource.PoolSource
	services *service.Services
	events   []EventRef
	logger   *logrus.Entry

	mu     sync.RWMutex
	latest map[string]*Snapshot
}

// NewRefresher creates a refresher over events
func NewRefresher(source datasource.PoolSource, services *service.Services, events []EventRef, logger *logrus.Logger) *Refresher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{
		source:   source,
		services: services,
		events:   events,
		logger:   logger.WithField("component", "refresher"),
		latest:   make(map[string]*Snapshot),
	}
}

// Refresh predicts every event. A failing event keeps its previous
// snapshot; all failures are returned joined.
func (r *Refresher) Refresh(ctx context.Context) error {
	var errs []error
	for _, ev := range r.events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.refreshEvent(ctx, ev); err != nil {
			r.logger.WithError(err).WithField("event_id", ev.ID).Error("Event refresh failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Refresher) refreshEvent(ctx context.Context, ev EventRef) error {
	pool, err := r.source.FetchPool(ctx, ev.ID)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ev.ID, err)
	}

	run, err := r.services.Prediction.Predict(ctx, service.Event{ID: ev.ID, Class: ev.Class, Pool: pool.Competitors})
	if err != nil {
		return err
	}

	snap := &Snapshot{Run: run, RefreshedAt: time.Now().UTC()}
	if r.services.Roster != nil {
		roster, err := r.services.Roster.SelectRoster(ctx, run)
		if err != nil {
			return fmt.Errorf("roster %s: %w", ev.ID, err)
		}
		snap.Roster = roster
	}

	r.mu.Lock()
	r.latest[ev.ID] = snap
	r.mu.Unlock()
	return nil
}

// ErrNoSnapshots is returned by Check before any event has been predicted
var ErrNoSnapshots = errors.New("no prediction snapshots yet")

// Check fails while events are configured but none has a snapshot
func (r *Refresher) Check(ctx context.Context) error {
	r.mu.RLock()
	n := len(r.latest)
	r.mu.RUnlock()
	if len(r.events) > 0 && n == 0 {
		return ErrNoSnapshots
	}
	return ctx.Err()
}

// Latest returns the most recent snapshot for eventID
func (r *Refresher) Latest(eventID string) (*Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.latest[eventID]
	return snap, ok
}

// ServeHTTP serves GET /predictions (event ids) and /predictions?event=<id>
func (r *Refresher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	eventID := req.URL.Query().Get("event")
	if eventID == "" {
		r.mu.RLock()
		ids := make([]string, 0, len(r.latest))
		for id := range r.latest {
			ids = append(ids, id)
		}
		r.mu.RUnlock()
		sort.Strings(ids)
		json.NewEncoder(w).Encode(map[string][]string{"events": ids})
		return
	}

	snap, ok := r.Latest(eventID)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no prediction for event " + eventID})
		return
	}
	json.NewEncoder(w).Encode(snap)
}
