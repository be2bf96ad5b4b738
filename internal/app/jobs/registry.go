package jobs

import (
	"context"
)

// Job names, matching the keys under scheduler.jobs in the configuration.
const (
	SQLMaintenance    = "sql_maintenance"
	ProfileCacheReset = "profile_cache_reset"
	PendingReport     = "pending_report"
)

// JobFunc is the signature of every scheduled job. The context is cancelled when the
// scheduler shuts down.
type JobFunc func(ctx context.Context) error

// RegisterAllJobs returns every job keyed by its configuration name.
func RegisterAllJobs(deps JobDeps) map[string]JobFunc {
	jobs := map[string]JobFunc{
		SQLMaintenance:    newSQLMaintenanceJob(deps),
		ProfileCacheReset: newProfileCacheResetJob(deps),
		PendingReport:     newPendingReportJob(deps),
	}

	deps.Logger.Info("Initialized scheduled jobs", "count", len(jobs))
	return jobs
}
