package jobs

import (
	"context"
)

// newProfileCacheResetJob ends the current profile session so names and pictures are
// fetched again on the next queue render.
func newProfileCacheResetJob(deps JobDeps) JobFunc {
	log := deps.Logger.With("job", ProfileCacheReset)

	return func(ctx context.Context) error {
		n := deps.Profiles.ResetProfiles()
		log.InfoContext(ctx, "Profile cache reset", "entries", n)
		return nil
	}
}
