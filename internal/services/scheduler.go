package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/besterhub/kgc-league/internal/models"
)

// SchedulerService generates pairings on a cron schedule, typically the
// evening before league night.
type SchedulerService struct {
	pairings  *PairingService
	logger    *logrus.Logger
	cron      *cron.Cron
	schedule  string
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastError string
}

// NewSchedulerService creates a scheduler using a standard cron expression,
// e.g. "0 18 * * 4" for Thursdays at 6 PM.
func NewSchedulerService(pairings *PairingService, schedule string, logger *logrus.Logger) *SchedulerService {
	return &SchedulerService{
		pairings: pairings,
		logger:   logger,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start begins scheduled generation.
func (s *SchedulerService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.cron.AddFunc(s.schedule, s.runScheduled)
	if err != nil {
		return fmt.Errorf("failed to schedule pairing generation: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"schedule":  s.schedule,
	}).Info("Pairing scheduler started")
	return nil
}

// Stop halts scheduled generation, waiting for any in-flight run.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.WithField("component", "scheduler").Info("Pairing scheduler stopped")
}

// runScheduled performs one scheduled generation run.
func (s *SchedulerService) runScheduled() {
	s.logger.WithField("component", "scheduler").Info("Starting scheduled pairing generation")

	run, _, err := s.pairings.GeneratePairings(context.Background(), models.TriggerScheduled, nil, false)

	s.mu.Lock()
	s.lastRun = time.Now()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithField("component", "scheduler").Errorf("Scheduled pairing generation failed: %v", err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"run_id":    run.ID,
		"pairs":     run.PairCount,
		"reserves":  run.ReserveCount,
	}).Info("Scheduled pairing generation complete")
}

// Status reports scheduler state for the health endpoint.
func (s *SchedulerService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	status := map[string]interface{}{
		"is_running": s.isRunning,
		"schedule":   s.schedule,
		"next_runs":  nextRuns,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
	}
	if s.lastError != "" {
		status["last_error"] = s.lastError
	}
	return status
}
