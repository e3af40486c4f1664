package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"donationhub/internal/infra"
	"donationhub/internal/infra/credentials"
)

// ratekey stores the exchange-rate provider key in integration_tokens so
// running API and worker processes pick it up without a restart.
func main() {
	var (
		keyFlag  string
		clearKey bool
	)
	flag.StringVar(&keyFlag, "key", "", "exchange-rate API key (falls back to EXCHANGERATE_API_KEY)")
	flag.BoolVar(&clearKey, "clear", false, "remove the stored key instead of setting one")
	flag.Parse()

	key := strings.TrimSpace(keyFlag)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("EXCHANGERATE_API_KEY"))
	}
	if key == "" && !clearKey {
		fmt.Fprintln(os.Stderr, "API key is required via -key or EXCHANGERATE_API_KEY")
		os.Exit(1)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "ratekey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))
	if clearKey {
		removed, err := store.ClearExchangeRateAPIKey(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to clear api key: %v\n", err)
			os.Exit(1)
		}
		if !removed {
			fmt.Println("no exchange-rate API key was stored")
			return
		}
		fmt.Println("exchange-rate API key removed")
		return
	}
	if err := store.SetExchangeRateAPIKey(ctx, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to persist api key: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("exchange-rate API key stored successfully")
}
