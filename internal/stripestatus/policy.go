package stripestatus

import "time"

// Poll cadences while a status view is open.
const (
	OnboardingPollInterval = 10 * time.Second
	ActivePollInterval     = 30 * time.Second
)

// SyncPolicy decides when the console should ask the backend to re-sync an
// account with Stripe without the user asking.
type SyncPolicy struct {
	// Threshold is the minimum age of the last sync in steady state.
	Threshold time.Duration
	// ReturnThreshold applies right after the onboarding completion redirect.
	ReturnThreshold time.Duration
}

// DefaultSyncPolicy re-syncs onboarding accounts every two minutes and at once
// after the completion redirect.
var DefaultSyncPolicy = SyncPolicy{Threshold: 2 * time.Minute}

// ShouldAutoSync reports whether a background sync is due. An account id is
// required; the account must be onboarding or the user must have just come
// back from onboarding; and the last sync must be missing or at least the
// applicable threshold old.
func (p SyncPolicy) ShouldAutoSync(s Status, accountID string, returnedFromOnboarding bool, now time.Time) bool {
	if accountID == "" {
		return false
	}
	if s.AccountStatus != Onboarding && !returnedFromOnboarding {
		return false
	}
	if s.LastSyncAt == nil {
		return true
	}

	threshold := p.Threshold
	if returnedFromOnboarding {
		threshold = p.ReturnThreshold
	}
	return now.Sub(*s.LastSyncAt) >= threshold
}

// PollInterval returns how often to refetch s, or 0 to stop polling.
func PollInterval(s Status, accountExists bool) time.Duration {
	if !accountExists {
		return 0
	}
	switch {
	case s.AccountStatus == Onboarding || s.HasOutstandingRequirements():
		return OnboardingPollInterval
	case s.AccountStatus == Active:
		return ActivePollInterval
	}
	return 0
}
