// Package scheduler runs in-process maintenance jobs on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

// Scheduler wraps a gocron scheduler with named interval jobs
type Scheduler struct {
	inner gocron.Scheduler
	jobs  map[string]gocron.Job
}

// New creates a stopped Scheduler. Jobs run in loc.
func New(loc *time.Location) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	inner, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{inner: inner, jobs: make(map[string]gocron.Job)}, nil
}

// Every registers fn to run every interval. A run still in progress when the
// next one is due is skipped.
func (s *Scheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	job, err := s.inner.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			start := time.Now()
			fn(ctx)
			log.Debug().
				Str("job", name).
				Dur("duration", time.Since(start)).
				Msg("Scheduled job finished")
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %q: %w", name, err)
	}

	s.jobs[name] = job
	log.Info().Str("job", name).Dur("interval", interval).Msg("Scheduled job registered")
	return nil
}

// RunNow triggers a registered job immediately
func (s *Scheduler) RunNow(name string) error {
	job, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return job.RunNow()
}

// Len returns the number of registered jobs
func (s *Scheduler) Len() int {
	return len(s.inner.Jobs())
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.inner.Start()
	log.Info().Int("jobs", s.Len()).Msg("Scheduler started")
}

// Shutdown stops the scheduler and waits for running jobs
func (s *Scheduler) Shutdown() error {
	return s.inner.Shutdown()
}
