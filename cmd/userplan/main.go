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

	"donationhub/internal/accounts"
	"donationhub/internal/adapter/repo"
	"donationhub/internal/domain"
	"donationhub/internal/identity"
	"donationhub/internal/infra"
)

func main() {
	var (
		idFlag    string
		emailFlag string
		planFlag  string
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.StringVar(&planFlag, "plan", string(domain.UserPlanPremium), "plan to assign (free, premium)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(emailFlag)
	plan := domain.UserPlan(strings.TrimSpace(strings.ToLower(planFlag)))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if !plan.Valid() {
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userplan").Logger()
	users := repo.NewUserRepository(infra.NewSQLRunner(pool, logger))

	if userID == "" {
		u, err := users.GetByEmail(ctx, strings.ToLower(email))
		if err != nil {
			exitWithError(fmt.Errorf("failed to load user: %w", err))
		}
		userID = u.ID
	}

	// Plan changes never touch credentials, so the service runs without a
	// verifier or token issuer.
	svc := accounts.NewService(users, nil, identity.NewHasher(), nil, accounts.Config{}, logger)
	updated, err := svc.ApplyPlan(ctx, userID, plan)
	if err != nil {
		exitWithError(fmt.Errorf("failed to update user plan: %w", err))
	}

	fmt.Printf("User %s (%s) updated to plan %s\n", updated.ID, updated.Email, updated.Plan)
	fmt.Printf("contact_count=%d donation_count=%d\n", updated.ContactCount, updated.DonationCount)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
