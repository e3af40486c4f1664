package domain

import (
	"context"
	"time"
)

// MarketplaceStats is the admin dashboard summary.
type MarketplaceStats struct {
	Users        int
	PremiumUsers int
	Admins       int
	// ContactsUsed sums contact_count over all users.
	ContactsUsed int
	Donations    int
	Featured     int
	ByStatus     map[DonationStatus]int
	// DonationsSince counts listings created at or after the requested time.
	DonationsSince int
}

type StatsRepository interface {
	Summary(ctx context.Context, since time.Time) (MarketplaceStats, error)
}
