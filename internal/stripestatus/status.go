// Package stripestatus reconciles the backend's view of a company's Stripe
// Connect account into one canonical Status, and decides when to poll and
// when to ask the backend to re-sync with Stripe.
package stripestatus

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aegisrent/aegis-console/internal/casing"
)

// ErrAccountNotFound is returned by a Backend when the company has no Stripe
// account yet.
var ErrAccountNotFound = errors.New("stripe account not found")

// AccountStatus is the lifecycle state of a connected account.
type AccountStatus string

const (
	NotStarted AccountStatus = "not_started"
	Onboarding AccountStatus = "onboarding"
	Active     AccountStatus = "active"
	PastDue    AccountStatus = "past_due"
	Restricted AccountStatus = "restricted"
)

// Status is the canonical account view. Requirement lists are never nil.
type Status struct {
	AccountID                string        `json:"accountId,omitempty"`
	AccountStatus            AccountStatus `json:"accountStatus"`
	ChargesEnabled           bool          `json:"chargesEnabled"`
	PayoutsEnabled           bool          `json:"payoutsEnabled"`
	DetailsSubmitted         bool          `json:"detailsSubmitted"`
	OnboardingCompleted      bool          `json:"onboardingCompleted"`
	RequirementsCurrentlyDue []string      `json:"requirementsCurrentlyDue"`
	RequirementsPastDue      []string      `json:"requirementsPastDue"`
	LastSyncAt               *time.Time    `json:"lastSyncAt,omitempty"`
}

// Default is the status of a company that has no account.
func Default() Status {
	return Status{
		AccountStatus:            NotStarted,
		RequirementsCurrentlyDue: []string{},
		RequirementsPastDue:      []string{},
	}
}

// Decode builds a Status from a backend response body, accepting camelCase
// and PascalCase spellings of every attribute.
func Decode(raw []byte) (Status, error) {
	f, err := casing.Decode(raw)
	if err != nil {
		return Status{}, fmt.Errorf("decode stripe status: %w", err)
	}
	return FromFields(f), nil
}

// FromFields maps already decoded fields to a Status.
func FromFields(f casing.Fields) Status {
	s := Status{
		AccountID:                f.String("accountId"),
		AccountStatus:            AccountStatus(f.String("accountStatus")),
		ChargesEnabled:           f.Bool("chargesEnabled"),
		PayoutsEnabled:           f.Bool("payoutsEnabled"),
		DetailsSubmitted:         f.Bool("detailsSubmitted"),
		OnboardingCompleted:      f.Bool("onboardingCompleted"),
		RequirementsCurrentlyDue: f.Strings("requirementsCurrentlyDue"),
		RequirementsPastDue:      f.Strings("requirementsPastDue"),
		LastSyncAt:               f.Time("lastSyncAt"),
	}
	if s.AccountID == "" {
		s.AccountID = f.String("stripeAccountId")
	}
	if s.AccountStatus == "" {
		s.AccountStatus = NotStarted
	}
	return s
}

// HasOutstandingRequirements reports whether Stripe is waiting on anything.
func (s Status) HasOutstandingRequirements() bool {
	return len(s.RequirementsCurrentlyDue) > 0 || len(s.RequirementsPastDue) > 0
}

// Equal reports whether s and o describe the same state.
func (s Status) Equal(o Status) bool {
	sameSync := (s.LastSyncAt == nil) == (o.LastSyncAt == nil) &&
		(s.LastSyncAt == nil || s.LastSyncAt.Equal(*o.LastSyncAt))
	return s.AccountID == o.AccountID &&
		s.AccountStatus == o.AccountStatus &&
		s.ChargesEnabled == o.ChargesEnabled &&
		s.PayoutsEnabled == o.PayoutsEnabled &&
		s.DetailsSubmitted == o.DetailsSubmitted &&
		s.OnboardingCompleted == o.OnboardingCompleted &&
		slices.Equal(s.RequirementsCurrentlyDue, o.RequirementsCurrentlyDue) &&
		slices.Equal(s.RequirementsPastDue, o.RequirementsPastDue) &&
		sameSync
}
