package stripestatus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// ErrSyncInFlight is returned by a manual Sync while another sync is pending.
var ErrSyncInFlight = errors.New("stripe sync already in progress")

// Backend is the account API the Reconciler drives. Status returns
// ErrAccountNotFound when no account exists.
type Backend interface {
	StripeStatus(ctx context.Context, companyID string) (Status, error)
	CreateStripeAccount(ctx context.Context, companyID string) error
	SuspendStripeAccount(ctx context.Context, companyID string) error
	ReactivateStripeAccount(ctx context.Context, companyID string) error
	DeleteStripeAccount(ctx context.Context, companyID string) error
	StripeOnboardingLink(ctx context.Context, companyID string) (string, error)
	SyncStripeAccount(ctx context.Context, companyID string) error
}

// Hooks are called after state changes so views can refresh.
type Hooks struct {
	// StatusChanged receives every freshly fetched status.
	StatusChanged func(Status)
	// CompanyChanged is called after commands that alter the company record.
	CompanyChanged func(ctx context.Context)
}

// Reconciler holds the latest known status of one company's account and runs
// commands against it.
type Reconciler struct {
	backend   Backend
	companyID string
	policy    SyncPolicy
	hooks     Hooks
	logger    zerolog.Logger
	now       func() time.Time

	syncing atomic.Bool

	mu      sync.RWMutex
	status  Status
	fetched bool
}

// NewReconciler creates a Reconciler for companyID.
func NewReconciler(backend Backend, companyID string, policy SyncPolicy, hooks Hooks, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		backend:   backend,
		companyID: companyID,
		policy:    policy,
		hooks:     hooks,
		logger:    logger.With().Str("component", "stripe_reconciler").Str("company_id", companyID).Logger(),
		now:       time.Now,
		status:    Default(),
	}
}

// Status returns the last fetched status, or Default before the first fetch.
func (r *Reconciler) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Fetched reports whether a fetch has succeeded.
func (r *Reconciler) Fetched() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetched
}

// Refresh fetches the status. A missing account is not an error: the status
// becomes Default.
func (r *Reconciler) Refresh(ctx context.Context) (Status, error) {
	s, err := r.backend.StripeStatus(ctx, r.companyID)
	if errors.Is(err, ErrAccountNotFound) {
		s, err = Default(), nil
	}
	if err != nil {
		return r.Status(), fmt.Errorf("fetch stripe status: %w", err)
	}

	r.mu.Lock()
	r.status = s
	r.fetched = true
	r.mu.Unlock()

	if r.hooks.StatusChanged != nil {
		r.hooks.StatusChanged(s)
	}
	return s, nil
}

// MaybeAutoSync runs a background sync if the policy says one is due and no
// other sync is pending. A trigger that arrives while a sync is pending is
// dropped. Failures are logged, never returned. It reports whether a sync was
// started.
func (r *Reconciler) MaybeAutoSync(ctx context.Context, accountID string, returnedFromOnboarding bool) bool {
	if !r.policy.ShouldAutoSync(r.Status(), accountID, returnedFromOnboarding, r.now()) {
		return false
	}
	if !r.syncing.CompareAndSwap(false, true) {
		r.logger.Debug().Msg("auto sync suppressed, sync already in flight")
		return false
	}
	defer r.syncing.Store(false)

	r.logger.Info().Bool("returned_from_onboarding", returnedFromOnboarding).Msg("auto syncing stripe account")
	if err := r.backend.SyncStripeAccount(ctx, r.companyID); err != nil {
		r.logger.Warn().Err(err).Msg("auto sync failed")
		return true
	}
	if _, err := r.Refresh(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("refresh after auto sync failed")
	}
	return true
}

// Sync is the user-initiated sync. Unlike MaybeAutoSync it returns errors.
func (r *Reconciler) Sync(ctx context.Context) error {
	if !r.syncing.CompareAndSwap(false, true) {
		return ErrSyncInFlight
	}
	defer r.syncing.Store(false)

	if err := r.backend.SyncStripeAccount(ctx, r.companyID); err != nil {
		return fmt.Errorf("sync stripe account: %w", err)
	}
	return r.after(ctx, false)
}

// Syncing reports whether a sync is pending.
func (r *Reconciler) Syncing() bool {
	return r.syncing.Load()
}

// Create opens a new connected account for the company.
func (r *Reconciler) Create(ctx context.Context) error {
	if err := r.backend.CreateStripeAccount(ctx, r.companyID); err != nil {
		return fmt.Errorf("create stripe account: %w", err)
	}
	return r.after(ctx, true)
}

// Suspend disables the account.
func (r *Reconciler) Suspend(ctx context.Context) error {
	if err := r.backend.SuspendStripeAccount(ctx, r.companyID); err != nil {
		return fmt.Errorf("suspend stripe account: %w", err)
	}
	return r.after(ctx, true)
}

// Reactivate re-enables a suspended account.
func (r *Reconciler) Reactivate(ctx context.Context) error {
	if err := r.backend.ReactivateStripeAccount(ctx, r.companyID); err != nil {
		return fmt.Errorf("reactivate stripe account: %w", err)
	}
	return r.after(ctx, true)
}

// Delete removes the account.
func (r *Reconciler) Delete(ctx context.Context) error {
	if err := r.backend.DeleteStripeAccount(ctx, r.companyID); err != nil {
		return fmt.Errorf("delete stripe account: %w", err)
	}
	return r.after(ctx, true)
}

// OnboardingLink requests a fresh hosted onboarding URL.
func (r *Reconciler) OnboardingLink(ctx context.Context) (string, error) {
	url, err := r.backend.StripeOnboardingLink(ctx, r.companyID)
	if err != nil {
		return "", fmt.Errorf("get onboarding link: %w", err)
	}
	if err := r.after(ctx, false); err != nil {
		return url, err
	}
	return url, nil
}

// after refreshes views once a command has succeeded.
func (r *Reconciler) after(ctx context.Context, companyChanged bool) error {
	if companyChanged && r.hooks.CompanyChanged != nil {
		r.hooks.CompanyChanged(ctx)
	}
	_, err := r.Refresh(ctx)
	return err
}
