package domain

import "time"

// Account represents a user's credit balance, keyed by their chat identifier.
type Account struct {
	AccountKey  int64
	FreeCredits int
	VipCredits  int
	ReferrerKey *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Balance is the read-only view of an account's consumable credits.
type Balance struct {
	FreeCredits int `json:"free_credits"`
	VipCredits  int `json:"vip_credits"`
}

// HasCredits reports whether the account can pay for at least one job.
func (b Balance) HasCredits() bool {
	return b.FreeCredits > 0 || b.VipCredits > 0
}

// CreditUsage identifies which credit type paid for a completed job.
type CreditUsage string

const (
	CreditUsageVip  CreditUsage = "vip"
	CreditUsageFree CreditUsage = "free"
	// CreditUsageNone signals a decrement against an empty balance. The job
	// still completes; the anomaly is logged, never surfaced to the user.
	CreditUsageNone CreditUsage = "none"
)

// Registration is the outcome of an idempotent account registration.
type Registration struct {
	Created          bool
	ReferrerCredited bool
}
