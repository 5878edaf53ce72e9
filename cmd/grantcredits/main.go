// Command grantcredits appends a positive ledger entry for a user, used to
// seed or top up balances from the operations side.
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
	"github.com/joho/godotenv"

	"studio/internal/adapter/repo"
)

func main() {
	var (
		userFlag   string
		amountFlag int64
		noteFlag   string
	)

	flag.StringVar(&userFlag, "user", "", "user ID to credit (UUID)")
	flag.Int64Var(&amountFlag, "amount", 0, "credits to grant (positive)")
	flag.StringVar(&noteFlag, "note", "Credit grant", "ledger entry description")
	flag.Parse()

	userID := strings.TrimSpace(userFlag)
	if userID == "" {
		exitWithError(errors.New("-user is required"))
	}
	if amountFlag <= 0 {
		exitWithError(errors.New("-amount must be positive"))
	}

	_ = godotenv.Load()
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

	ledger := repo.NewLedgerRepository(pool)
	if err := ledger.Credit(ctx, userID, amountFlag, noteFlag); err != nil {
		exitWithError(fmt.Errorf("grant credits: %w", err))
	}

	balance, err := ledger.Balance(ctx, userID)
	if err != nil {
		exitWithError(fmt.Errorf("read balance: %w", err))
	}
	fmt.Printf("granted %d credits to %s, balance now %d\n", amountFlag, userID, balance)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
