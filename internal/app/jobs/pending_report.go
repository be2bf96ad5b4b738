package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/replydesk/internal/database"
)

const pendingReportTimeout = 30 * time.Second

// newPendingReportJob refreshes the pending gauge and logs the queue depth.
func newPendingReportJob(deps JobDeps) JobFunc {
	log := deps.Logger.With("job", PendingReport)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pendingReportTimeout)
		defer cancel()

		n, err := deps.Store.CountTasksByStatus(ctx, database.StatusAwaitingApproval)
		if err != nil {
			log.ErrorContext(ctx, "Failed to count pending tasks", "error", err)
			return fmt.Errorf("count pending tasks: %w", err)
		}

		deps.Metrics.SetPending(n)
		if n > 0 {
			log.InfoContext(ctx, "Tasks awaiting approval", "count", n)
		} else {
			log.DebugContext(ctx, "Review queue is empty")
		}
		return nil
	}
}
