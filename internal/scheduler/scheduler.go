package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// RegistryRefresher reloads a provider's station registry from its API.
type RegistryRefresher interface {
	RefreshStations(ctx context.Context) error
}

// Scheduler runs the cron-shaped maintenance jobs, currently the Grafcan
// station registry refresh. Collector polling does not go through here; its
// cadence is stretched by backoff and lives in the collector loops.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// New creates a new Scheduler.
func New() *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// ScheduleRegistryRefresh registers a cron job that reloads the station
// registry, each run bounded by timeout.
func (s *Scheduler) ScheduleRegistryRefresh(cronExpr string, timeout time.Duration, r RegistryRefresher) error {
	_, err := s.scheduler.Cron(cronExpr).Do(func() {
		log.Println("scheduler: refreshing station registry")

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := r.RefreshStations(ctx); err != nil {
			log.Printf("scheduler: station registry refresh failed: %v", err)
			return
		}
		log.Println("scheduler: station registry refresh completed")
	})
	return err
}

// Start starts the underlying scheduler asynchronously.
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
