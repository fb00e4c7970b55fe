// Package ledger owns the per-account credit balance. Every mutation is a
// single SQL statement so concurrent workers can never drive a counter
// negative or apply a decrement twice.
package ledger

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
	"upscaler/internal/infra"
	"upscaler/internal/sqlinline"
)

// Ledger provides the credit operations backed by the accounts table.
type Ledger struct {
	sql    infra.SQLExecutor
	logger zerolog.Logger
}

func New(sql infra.SQLExecutor, logger zerolog.Logger) *Ledger {
	return &Ledger{sql: sql, logger: logger}
}

// Balance returns the account's credit counters. domain.ErrNotFound signals
// an unregistered account.
func (l *Ledger) Balance(ctx context.Context, accountKey int64) (domain.Balance, error) {
	var b domain.Balance
	row := l.sql.QueryRow(ctx, sqlinline.QSelectBalance, accountKey)
	if err := row.Scan(&b.FreeCredits, &b.VipCredits); err != nil {
		if infra.IsNoRows(err) {
			return domain.Balance{}, domain.ErrNotFound
		}
		return domain.Balance{}, fmt.Errorf("ledger: select balance: %w", err)
	}
	return b, nil
}

// DecrementOnSuccess consumes one credit for a completed job, vip first.
// Must be called at most once per successful job.
func (l *Ledger) DecrementOnSuccess(ctx context.Context, accountKey int64) (domain.CreditUsage, error) {
	var usage string
	row := l.sql.QueryRow(ctx, sqlinline.QDecrementOnSuccess, accountKey)
	if err := row.Scan(&usage); err != nil {
		if infra.IsNoRows(err) {
			return domain.CreditUsageNone, domain.ErrNotFound
		}
		return domain.CreditUsageNone, fmt.Errorf("ledger: decrement: %w", err)
	}
	if usage == string(domain.CreditUsageNone) {
		// Admission should have filtered this job out; degrade safely.
		l.logger.Warn().Int64("account_key", accountKey).Msg("ledger: decrement on empty balance")
	}
	return domain.CreditUsage(usage), nil
}

// IncrementVip adds purchased credits to the account.
func (l *Ledger) IncrementVip(ctx context.Context, accountKey int64, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	tag, err := l.sql.Exec(ctx, sqlinline.QIncrementVip, accountKey, amount)
	if err != nil {
		return fmt.Errorf("ledger: increment vip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RegisterIfAbsent creates the account on first contact. Idempotent: a second
// call for the same key reports Created=false and changes nothing.
func (l *Ledger) RegisterIfAbsent(ctx context.Context, accountKey int64, referrerKey *int64) (domain.Registration, error) {
	var reg domain.Registration
	row := l.sql.QueryRow(ctx, sqlinline.QRegisterIfAbsent, accountKey, referrerKey)
	if err := row.Scan(&reg.Created, &reg.ReferrerCredited); err != nil {
		return domain.Registration{}, fmt.Errorf("ledger: register: %w", err)
	}
	if reg.Created {
		l.logger.Info().
			Int64("account_key", accountKey).
			Bool("referrer_credited", reg.ReferrerCredited).
			Msg("ledger: account registered")
	}
	return reg, nil
}

// ReferralCount reports how many accounts were registered through this
// account's referral link.
func (l *Ledger) ReferralCount(ctx context.Context, accountKey int64) (int, error) {
	var count int
	row := l.sql.QueryRow(ctx, sqlinline.QReferralCount, accountKey)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("ledger: referral count: %w", err)
	}
	return count, nil
}
