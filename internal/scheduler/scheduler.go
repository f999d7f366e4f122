package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler periodically refreshes sensor coordinates from AQICN.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    *Runner
	interval  time.Duration
}

// New creates a new Scheduler.
func New(runner *Runner, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
	}
}

// Start schedules the periodic sync job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(func() {
		log.Println("scheduler: running coordinate sync")

		report, err := s.runner.RunOnce(context.Background())
		if err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				log.Println("scheduler: previous sync still running; skipping")
				return
			}
			log.Printf("scheduler: sync failed: %v", err)
			return
		}
		log.Printf("scheduler: updated coordinates for %d sensors in %s", report.SensorCount, report.File)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
