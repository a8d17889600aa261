package scheduler

import (
	"errors"
	"fmt"
	"log"

	"github.com/Leventi/bl-parser/internal/config"
	"github.com/Leventi/bl-parser/internal/registry"

	"github.com/robfig/cron/v3"
)

// Scheduler fires registry synchronization passes on a fixed interval.
// It fires once at start and then every Sync.IntervalSeconds; a tick that
// lands while the previous pass is still running is skipped.
type Scheduler struct {
	cron      *cron.Cron
	job       *registry.SyncJob
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(job *registry.SyncJob, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		job:    job,
		config: cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Sync.Enabled {
		log.Println("Scheduler: Scheduled synchronization is disabled in configuration")
		return nil
	}

	cronSpec := fmt.Sprintf("@every %ds", s.config.Sync.IntervalSeconds)

	_, err := s.cron.AddFunc(cronSpec, s.runPass)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: Started with interval %v", s.config.Sync.GetInterval())

	if s.config.Sync.RunOnStart {
		go s.runPass()
	}

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: Stopped")
	}
}

// RunNow immediately executes a synchronization pass (for manual trigger)
func (s *Scheduler) RunNow() (*registry.Summary, error) {
	log.Println("Scheduler: Manual trigger - starting synchronization pass...")
	return s.job.RunTablePass()
}

func (s *Scheduler) runPass() {
	log.Println("Scheduler: Starting synchronization pass...")

	summary, err := s.job.RunTablePass()
	if errors.Is(err, registry.ErrSyncRunning) {
		log.Println("Scheduler: Previous pass still running, skipping this tick")
		return
	}
	if err != nil {
		log.Printf("Scheduler: Synchronization failed: %v", err)
		return
	}

	log.Printf("Scheduler: Synchronization completed (inserted: %d, refreshed: %d, removed: %d)",
		summary.Inserted, summary.Refreshed, summary.Removed)
}
