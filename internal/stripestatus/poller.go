package stripestatus

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aegisrent/aegis-console/internal/poll"
)

// WatchOptions configure a status watch.
type WatchOptions struct {
	// AccountID is the company's known account id. When empty the id reported
	// by the status endpoint is used.
	AccountID string
	// ReturnedFromOnboarding is set when the watch starts right after the
	// onboarding completion redirect. It only affects the first evaluation.
	ReturnedFromOnboarding bool
	// Schedule overrides the cadence derived from PollInterval.
	Schedule func(Status, bool) cron.Schedule
	// Retry is the cadence after a failed fetch. Defaults to
	// OnboardingPollInterval.
	Retry cron.Schedule
}

// Watch returns a polling task that refetches the status on the cadence given
// by PollInterval, running auto syncs as the policy allows. Fetch failures are
// logged and retried. The task ends by itself once the cadence drops to zero.
func (r *Reconciler) Watch(opts WatchOptions, logger zerolog.Logger) *poll.Task {
	schedule := opts.Schedule
	if schedule == nil {
		schedule = func(s Status, exists bool) cron.Schedule {
			return poll.Every(PollInterval(s, exists))
		}
	}

	retry := opts.Retry
	if retry == nil {
		retry = poll.Every(OnboardingPollInterval)
	}
	returned := opts.ReturnedFromOnboarding

	return poll.New("stripe_status", poll.Immediately, func(ctx context.Context) cron.Schedule {
		s, err := r.Refresh(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("stripe status poll failed")
			return retry
		}

		accountID := opts.AccountID
		if accountID == "" {
			accountID = s.AccountID
		}
		if r.MaybeAutoSync(ctx, accountID, returned) {
			s = r.Status()
		}
		returned = false

		return schedule(s, accountID != "" || s.AccountStatus != NotStarted)
	}, logger)
}
