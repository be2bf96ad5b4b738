// Package jobs implements the scheduled background jobs of ReplyDesk.
package jobs

import (
	"context"
	"log/slog"

	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/metrics"
)

// Store is the part of database.Store used by jobs.
type Store interface {
	RunSQLMaintenance(ctx context.Context) error
	CountTasksByStatus(ctx context.Context, status database.TaskStatus) (int, error)
}

// ProfileResetter clears memoized customer profiles.
type ProfileResetter interface {
	ResetProfiles() int
}

// JobDeps contains all dependencies required by scheduled jobs.
type JobDeps struct {
	Logger   *slog.Logger
	Store    Store
	Profiles ProfileResetter
	Metrics  *metrics.Metrics
}
