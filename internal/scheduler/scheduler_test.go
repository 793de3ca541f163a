package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/peloton/internal/aggregate"
	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/estimator"
	"github.com/yourusername/peloton/internal/models"
	"github.com/yourusername/peloton/internal/scoring"
	"github.com/yourusername/peloton/internal/service"
	"github.com/yourusername/peloton/internal/simulator"
)

type countingJob struct {
	calls int32
	err   error
}

func (j *countingJob) Refresh(context.Context) error {
	atomic.AddInt32(&j.calls, 1)
	return j.err
}

func TestSchedulerLifecycle(t *testing.T) {
	logger, _ := test.NewNullLogger()
	job := &countingJob{}
	s := NewScheduler(job, logger, 0)

	assert.Error(t, s.Start(), "no refresh scheduled")
	assert.Error(t, s.ScheduleRefresh("not a cron"))
	require.NoError(t, s.ScheduleRefresh("0 */6 * * *"))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.NextRun().IsZero())
	assert.Error(t, s.Start())
	assert.Error(t, s.ScheduleRefresh("@hourly"))

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextRun().IsZero())
}

func TestRunJobLogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	job := &countingJob{err: errors.New("source down")}
	s := NewScheduler(job, logger, time.Second)
	assert.Nil(t, s.LastRun())

	s.runJob()
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
	assert.Equal(t, "Scheduled refresh finished with errors", hook.LastEntry().Message)

	last := s.LastRun()
	require.NotNil(t, last)
	assert.EqualError(t, last.Err, "source down")
	assert.False(t, last.StartedAt.IsZero())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule", nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.Equal(t, "source down", body["last_error"])
	assert.NotContains(t, body, "next_run")

	job.err = nil
	s.runJob()
	assert.NoError(t, s.LastRun().Err)
	assert.Equal(t, "Scheduled refresh completed", hook.LastEntry().Message)
}

type mapSource struct {
	pools map[string][]models.Competitor
}

func (m mapSource) Name() string { return "map" }

func (m mapSource) FetchPool(_ context.Context, id string) (*datasource.EventPool, error) {
	pool, ok := m.pools[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &datasource.EventPool{EventID: id, Competitors: pool}, nil
}

func (m mapSource) FetchResult(context.Context, string) (*models.EventResult, error) {
	return nil, models.ErrNotFound
}

func ptr(v float64) *float64 { return &v }

func TestRefresherKeepsLatestSnapshots(t *testing.T) {
	logger, _ := test.NewNullLogger()
	predictions, err := service.NewPredictionService(service.PredictionOptions{
		Params:     estimator.DefaultParams(),
		Simulation: simulator.Config{Trials: 300, Workers: 1, Seed: 1},
		Breakaway:  aggregate.DefaultBreakaway(),
	}, logger)
	require.NoError(t, err)
	services := &service.Services{
		Prediction: predictions,
		Roster:     service.NewRosterService(nil, service.RosterRules{Size: 1, Budget: 100}, nil, logger),
	}

	src := mapSource{pools: map[string][]models.Competitor{
		"omloop": {
			{Key: "a", Name: "A", Cost: 10, ExternalRating: ptr(1)},
			{Key: "b", Name: "B", Cost: 12, ExternalRating: ptr(2)},
		},
	}}
	r := NewRefresher(src, services, []EventRef{
		{ID: "omloop", Class: scoring.OneDay},
		{ID: "missing", Class: scoring.OneDay},
	}, logger)

	assert.ErrorIs(t, r.Check(context.Background()), ErrNoSnapshots)

	err = r.Refresh(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, r.Check(context.Background()))

	snap, ok := r.Latest("omloop")
	require.True(t, ok)
	assert.Len(t, snap.Run.Predictions, 2)
	require.NotNil(t, snap.Roster)
	assert.True(t, snap.Roster.Feasible())

	_, ok = r.Latest("missing")
	assert.False(t, ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions", nil))
	var list map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, []string{"omloop"}, list["events"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions?event=omloop", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"event_id":"omloop"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predictions?event=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/predictions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
