package jobs

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceJob runs the store's maintenance statement.
func newSQLMaintenanceJob(deps JobDeps) JobFunc {
	log := deps.Logger.With("job", SQLMaintenance)

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting scheduled SQL maintenance")
		startTime := time.Now()

		err := deps.Store.RunSQLMaintenance(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "SQL maintenance failed", "error", err, "duration", duration)
			return fmt.Errorf("sql maintenance failed: %w", err)
		}

		log.InfoContext(ctx, "SQL maintenance completed", "duration", duration)
		return nil
	}
}
