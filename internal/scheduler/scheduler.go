// Package scheduler keeps event predictions fresh on a cron schedule.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultJobTimeout bounds a single refresh.
const DefaultJobTimeout = 30 * time.Minute

// Job is anything the scheduler can run on a schedule
type Job interface {
	Refresh(ctx context.Context) error
}

// RunStatus describes the most recent refresh.
type RunStatus struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// Scheduler runs a refresh job on one or more cron specs. A refresh that is
// still running when the next tick fires causes that tick to be skipped.
type Scheduler struct {
	cron       *cron.Cron
	job        Job
	logger     *logrus.Entry
	jobTimeout time.Duration

	mu      sync.RWMutex
	running bool
	entries []cron.EntryID
	last    *RunStatus
}

// NewScheduler creates a scheduler in UTC. A non-positive timeout uses
// DefaultJobTimeout.
func NewScheduler(job Job, logger *logrus.Logger, timeout time.Duration) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(entry))),
		),
		job:        job,
		logger:     entry,
		jobTimeout: timeout,
	}
}

// ScheduleRefresh adds a standard five-field cron spec. Specs can only be
// added before Start.
func (s *Scheduler) ScheduleRefresh(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("cannot schedule refresh while scheduler is running")
	}

	id, err := s.cron.AddFunc(spec, s.runJob)
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	s.entries = append(s.entries, id)
	s.logger.WithField("cron", spec).Info("Scheduled prediction refresh")
	return nil
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	err := s.job.Refresh(ctx)
	status := &RunStatus{StartedAt: start.UTC(), Duration: time.Since(start), Err: err}

	s.mu.Lock()
	s.last = status
	s.mu.Unlock()

	fields := logrus.Fields{"duration": status.Duration}
	if err != nil {
		s.logger.WithFields(fields).WithError(err).Error("Scheduled refresh finished with errors")
		return
	}
	s.logger.WithFields(fields).Info("Scheduled refresh completed")
}

// Start begins firing scheduled refreshes
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.entries) == 0 {
		return fmt.Errorf("no refresh scheduled")
	}

	s.cron.Start()
	s.running = true
	s.logger.WithFields(logrus.Fields{
		"schedules": len(s.entries),
		"next_run":  s.nextRunLocked(),
	}).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for a running refresh to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	// runJob takes the lock when it finishes, so wait without holding it.
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// LastRun returns the most recent refresh, or nil before the first one.
func (s *Scheduler) LastRun() *RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// NextRun returns the earliest upcoming refresh, or zero when stopped.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return time.Time{}
	}
	return s.nextRunLocked()
}

func (s *Scheduler) nextRunLocked() time.Time {
	var next time.Time
	for _, id := range s.entries {
		entry := s.cron.Entry(id)
		if !entry.Valid() {
			continue
		}
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

type statusResponse struct {
	Running   bool       `json:"running"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastRun   *RunStatus `json:"last_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// ServeHTTP reports the schedule state as JSON
func (s *Scheduler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{Running: s.IsRunning(), LastRun: s.LastRun()}
	if next := s.NextRun(); !next.IsZero() {
		resp.NextRun = &next
	}
	if resp.LastRun != nil && resp.LastRun.Err != nil {
		resp.LastError = resp.LastRun.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
