package repo

import (
	"context"
	"time"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

// StatsRepositoryPG aggregates the admin summary in one round trip.
type StatsRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewStatsRepository(sql infra.SQLExecutor) *StatsRepositoryPG {
	return &StatsRepositoryPG{sql: sql}
}

func (r *StatsRepositoryPG) Summary(ctx context.Context, since time.Time) (domain.MarketplaceStats, error) {
	var s domain.MarketplaceStats
	var available, inProgress, gone int
	err := r.sql.QueryRow(ctx, sqlinline.QMarketplaceStats, since).Scan(
		&s.Users,
		&s.PremiumUsers,
		&s.Admins,
		&s.ContactsUsed,
		&s.Donations,
		&s.Featured,
		&available,
		&inProgress,
		&gone,
		&s.DonationsSince,
	)
	if err != nil {
		return domain.MarketplaceStats{}, infra.ClassifyPgError("marketplace stats", err)
	}
	s.ByStatus = map[domain.DonationStatus]int{
		domain.DonationStatusAvailable:  available,
		domain.DonationStatusInProgress: inProgress,
		domain.DonationStatusTaken:      gone,
	}
	return s, nil
}

var _ domain.StatsRepository = (*StatsRepositoryPG)(nil)
