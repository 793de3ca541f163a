package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/peloton/internal/datasource"
	"github.com/yourusername/peloton/internal/health"
	"github.com/yourusername/peloton/internal/metrics"
	"github.com/yourusername/peloton/internal/scheduler"
	"github.com/yourusername/peloton/internal/scoring"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Refresh scheduled events and serve predictions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		events := make([]scheduler.EventRef, 0, len(cfg.Schedule.Events))
		for _, ev := range cfg.Schedule.Events {
			class, err := scoring.ParseEventClass(ev.Class)
			if err != nil {
				return fmt.Errorf("schedule event %s: %w", ev.ID, err)
			}
			events = append(events, scheduler.EventRef{ID: ev.ID, Class: class})
		}
		refresher := scheduler.NewRefresher(source, services, events, appLog)

		handlers := map[string]http.Handler{"/predictions": refresher}

		var sched *scheduler.Scheduler
		if cfg.Schedule.Enabled {
			sched = scheduler.NewScheduler(refresher, appLog, 0)
			if err := sched.ScheduleRefresh(cfg.Schedule.RefreshCron); err != nil {
				return err
			}
			handlers["/schedule"] = sched
		}

		var metricsServer *http.Server
		if cfg.Metrics.Enabled {
			if cfg.Metrics.Port == cfg.App.HealthPort {
				handlers[cfg.Metrics.Path] = metrics.Handler()
			} else {
				metricsServer = startMetricsServer()
			}
		}
		hcfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Logger:      appLog,
			Handlers:    handlers,
		}
		if cfg.App.HealthPort > 0 {
			hcfg.Port = strconv.Itoa(cfg.App.HealthPort)
		}
		hcfg.Checks = map[string]health.Check{"predictions": refresher.Check}
		if db != nil {
			hcfg.Checks["database"] = health.PingCheck(db)
		}
		if checker, ok := source.(datasource.Checker); ok {
			hcfg.Checks["pool_source"] = checker.Check
		}
		server := health.NewServer(hcfg)
		if err := server.Start(ctx); err != nil {
			return err
		}

		if err := refresher.Refresh(ctx); err != nil {
			appLog.WithError(err).Warn("Initial refresh incomplete")
		}

		if sched != nil {
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}
		server.SetReady(true)

		appLog.WithFields(logrus.Fields{
			"events":   len(events),
			"schedule": cfg.Schedule.Enabled,
			"metrics":  cfg.Metrics.Enabled,
			"version":  Version,
		}).Info("Peloton server running")

		select {
		case sig := <-sigChan:
			appLog.WithField("signal", sig).Info("Shutdown signal received")
		case <-ctx.Done():
		}

		server.SetReady(false)
		cancel()
		if err := server.Shutdown(); err != nil {
			appLog.WithError(err).Error("Error during server shutdown")
		}
		if metricsServer != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				appLog.WithError(err).Error("Error during metrics server shutdown")
			}
		}
		appLog.Info("Peloton server shut down successfully")
		return nil
	},
}

func startMetricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	return srv
}
