// Package admission decides which queue a submitted job lands on.
package admission

import (
	"context"
	"fmt"

	"upscaler/internal/domain"
)

// BalanceReader is the slice of the ledger the router needs.
type BalanceReader interface {
	Balance(ctx context.Context, accountKey int64) (domain.Balance, error)
}

// Router selects a priority class from the account's credit balance. It is a
// pure read: consumption happens only after successful processing, so the
// balance may change between routing and decrement. That race is accepted;
// the worst case is a vip-routed job that ends up consuming a free credit.
type Router struct {
	ledger BalanceReader
}

func NewRouter(ledger BalanceReader) *Router {
	return &Router{ledger: ledger}
}

// SelectQueue returns the priority queue iff the account holds vip credits.
func (r *Router) SelectQueue(ctx context.Context, accountKey int64) (domain.QueueClass, error) {
	balance, err := r.ledger.Balance(ctx, accountKey)
	if err != nil {
		return "", fmt.Errorf("admission: %w", err)
	}
	if balance.VipCredits > 0 {
		return domain.QueuePriority, nil
	}
	return domain.QueueStandard, nil
}
