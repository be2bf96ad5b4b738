package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/replydesk/internal/app/jobs"
	"github.com/edgard/replydesk/internal/config"
)

// Scheduler runs the configured jobs on their cron schedules using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	jobMap    map[string]jobs.JobFunc
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler for the jobs in jobMap.
func NewScheduler(logger *slog.Logger, cfg config.SchedulerConfig, jobMap map[string]jobs.JobFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		jobMap:    jobMap,
	}, nil
}

// Start registers every enabled job and starts the scheduler. Jobs receive a context
// derived from ctx that is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	jobCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	scheduled := 0
	for name, jobCfg := range s.cfg.Jobs {
		if !jobCfg.Enabled {
			s.logger.Info("Skipping disabled job", "job_name", name)
			continue
		}

		jobFunc, exists := s.jobMap[name]
		if !exists {
			s.logger.Warn("Scheduled job configured but not registered, skipping", "job_name", name)
			continue
		}

		_, err := s.scheduler.NewJob(
			gocron.CronJob(jobCfg.Schedule, true),
			gocron.NewTask(func() {
				s.logger.InfoContext(jobCtx, "Running scheduled job", "job_name", name)
				startTime := time.Now()
				if err := jobFunc(jobCtx); err != nil {
					s.logger.ErrorContext(jobCtx, "Scheduled job failed", "job_name", name, "error", err)
				}
				s.logger.InfoContext(jobCtx, "Finished scheduled job", "job_name", name, "duration", time.Since(startTime))
			}),
			gocron.WithName(name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			s.logger.Error("Failed to schedule job", "job_name", name, "schedule", jobCfg.Schedule, "error", err)
			continue
		}

		s.logger.Info("Scheduled job", "job_name", name, "schedule", jobCfg.Schedule)
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "jobs_scheduled", scheduled)
	return nil
}

// JobNames lists the jobs currently registered with gocron.
func (s *Scheduler) JobNames() []string {
	registered := s.scheduler.Jobs()
	names := make([]string, 0, len(registered))
	for _, j := range registered {
		names = append(names, j.Name())
	}
	return names
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}

	s.running = false
	return err
}
