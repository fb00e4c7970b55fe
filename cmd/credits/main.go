// Command credits is the operator CLI for the credit ledger. It grants vip
// credits out of band, for payments handled outside the API, and prints the
// resulting balance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"upscaler/internal/domain"
	"upscaler/internal/infra"
	"upscaler/internal/ledger"
)

func main() {
	var (
		accountFlag int64
		amountFlag  int
	)

	flag.Int64Var(&accountFlag, "account", 0, "account key (chat id) to credit")
	flag.IntVar(&amountFlag, "amount", 0, "vip credits to add (0 to only print the balance)")
	flag.Parse()

	if accountFlag == 0 {
		exitWithError(errors.New("-account is required"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger(os.Getenv("APP_ENV"))
	creditLedger := ledger.New(pool, logger)

	if amountFlag != 0 {
		if err := creditLedger.IncrementVip(ctx, accountFlag, amountFlag); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				exitWithError(fmt.Errorf("account %d is not registered", accountFlag))
			}
			exitWithError(fmt.Errorf("add credits: %w", err))
		}
		fmt.Printf("added %d vip credits to account %d\n", amountFlag, accountFlag)
	}

	balance, err := creditLedger.Balance(ctx, accountFlag)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			exitWithError(fmt.Errorf("account %d is not registered", accountFlag))
		}
		exitWithError(fmt.Errorf("load balance: %w", err))
	}
	fmt.Printf("account %d: %d vip, %d free\n", accountFlag, balance.VipCredits, balance.FreeCredits)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "credits: %v\n", err)
	os.Exit(1)
}
