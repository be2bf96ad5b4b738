package app

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edgard/replydesk/internal/app/jobs"
	"github.com/edgard/replydesk/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerRegistersEnabledJobs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := config.SchedulerConfig{Jobs: map[string]config.JobConfig{
		"enabled":      {Enabled: true, Schedule: "0 0 * * * *"},
		"disabled":     {Enabled: false, Schedule: "0 0 * * * *"},
		"unregistered": {Enabled: true, Schedule: "0 0 * * * *"},
		"bad_cron":     {Enabled: true, Schedule: "not a cron"},
	}}
	jobMap := map[string]jobs.JobFunc{"enabled": noop, "disabled": noop, "bad_cron": noop}

	s, err := NewScheduler(discardLogger(), cfg, jobMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Stop() })

	if names := s.JobNames(); !slices.Equal(names, []string{"enabled"}) {
		t.Errorf("JobNames() = %v, want [enabled]", names)
	}
	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start() error = nil, want already running")
	}
}

func TestSchedulerRunsJobs(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	done := make(chan struct{}, 1)
	cfg := config.SchedulerConfig{Jobs: map[string]config.JobConfig{
		"tick": {Enabled: true, Schedule: "* * * * * *"},
	}}
	jobMap := map[string]jobs.JobFunc{"tick": func(context.Context) error {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
		return nil
	}}

	s, err := NewScheduler(discardLogger(), cfg, jobMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run within 5s")
	}

	if err := s.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}
