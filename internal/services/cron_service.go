package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reconcileJobTimeout bounds one scheduled reconciliation pass
const reconcileJobTimeout = 5 * time.Minute

// CronService manages scheduled background jobs
type CronService struct {
	cron           *cron.Cron
	reconciler     *ReconcileService
	schedule       string
	memorySessions *MemorySessionStore
	logger         *logrus.Logger
}

// NewCronService creates a new CronService.
// An empty schedule disables the reconcile job; memorySessions may be nil when sessions live in Redis (which expires them itself).
func NewCronService(reconciler *ReconcileService, schedule string, memorySessions *MemorySessionStore, logger *logrus.Logger) *CronService {
	// Seconds precision: "0 30 3 * * *" = 03:30:00 every day
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:           c,
		reconciler:     reconciler,
		schedule:       schedule,
		memorySessions: memorySessions,
		logger:         logger,
	}
}

// Start starts all cron jobs
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, s.reconcileJob); err != nil {
			return fmt.Errorf("failed to schedule reconcile job: %w", err)
		}
		s.logger.WithField("schedule", s.schedule).Info("Scheduled: ledger reconciliation")
	}

	if s.memorySessions != nil {
		// Every minute
		if _, err := s.cron.AddFunc("0 * * * * *", s.purgeSessionsJob); err != nil {
			return fmt.Errorf("failed to schedule session purge job: %w", err)
		}
		s.logger.Info("Scheduled: purge expired checkout sessions (every minute)")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// reconcileJob runs one reconciliation pass
func (s *CronService) reconcileJob() {
	s.logger.Info("[CRON] Starting ledger reconciliation job...")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), reconcileJobTimeout)
	defer cancel()

	report, err := s.reconciler.Run(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Ledger reconciliation failed")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"issues":   len(report.Issues),
		"duration": time.Since(startTime).String(),
	}).Info("[CRON] Ledger reconciliation finished")
}

// purgeSessionsJob drops expired in-memory checkout sessions
func (s *CronService) purgeSessionsJob() {
	if removed := s.memorySessions.PurgeExpired(); removed > 0 {
		s.logger.WithField("removed", removed).Debug("[CRON] Purged expired checkout sessions")
	}
}

// RunReconcileNow runs the reconciliation job immediately
func (s *CronService) RunReconcileNow() {
	s.logger.Info("[MANUAL] Running ledger reconciliation now...")
	s.reconcileJob()
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
