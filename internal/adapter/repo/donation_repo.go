package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts the donation for ownerID. OwnerID and OwnerName on the input
// are ignored; both come from the locked owner row.
func (r *DonationRepositoryPG) Create(ctx context.Context, ownerID string, donation *domain.Donation, freeLimit int) (*domain.Donation, error) {
	status := donation.Status
	if status == "" {
		status = domain.DonationStatusAvailable
	}
	var (
		id        pgtype.Text
		ownerName pgtype.Text
		createdAt pgtype.Timestamptz
	)
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		ownerID,
		donation.Title,
		donation.Description,
		donation.Contact,
		donation.ImageURL,
		donation.ImageHint,
		string(status),
		freeLimit,
	)
	if err := row.Scan(&id, &ownerName, &createdAt); err != nil {
		return nil, infra.ClassifyPgError("create donation", err)
	}
	if !id.Valid {
		return nil, fmt.Errorf("create donation: %w", domain.ErrQuotaExceeded)
	}
	out := *donation
	out.ID = id.String
	out.OwnerID = ownerID
	out.OwnerName = ownerName.String
	out.Status = status
	out.IsFeatured = false
	out.CreatedAt = createdAt.Time
	return &out, nil
}

func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByID, id))
	if err != nil {
		return nil, infra.ClassifyPgError("get donation", err)
	}
	return d, nil
}

// ListAll returns the public feed, newest first.
func (r *DonationRepositoryPG) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Donation, error) {
	filter = filter.Normalized()
	rows, err := r.sql.Query(ctx, sqlinline.QListDonations, filter.Query, filter.FeaturedOnly, filter.Limit)
	if err != nil {
		return nil, infra.ClassifyPgError("list donations", err)
	}
	return collectDonations("list donations", rows)
}

func (r *DonationRepositoryPG) ListByOwner(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListDonationsByOwner, ownerID)
	if err != nil {
		return nil, infra.ClassifyPgError("list owner donations", err)
	}
	return collectDonations("list owner donations", rows)
}

func (r *DonationRepositoryPG) UpdateStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QUpdateDonationStatus, id, string(status)))
	if err != nil {
		return nil, infra.ClassifyPgError("update donation status", err)
	}
	return d, nil
}

func (r *DonationRepositoryPG) SetFeatured(ctx context.Context, id string, featured bool) (*domain.Donation, error) {
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSetDonationFeatured, id, featured))
	if err != nil {
		return nil, infra.ClassifyPgError("set donation featured", err)
	}
	return d, nil
}

func (r *DonationRepositoryPG) Delete(ctx context.Context, id string) error {
	var deleted string
	if err := r.sql.QueryRow(ctx, sqlinline.QDeleteDonation, id).Scan(&deleted); err != nil {
		return infra.ClassifyPgError("delete donation", err)
	}
	return nil
}

func collectDonations(op string, rows pgx.Rows) ([]domain.Donation, error) {
	defer rows.Close()

	items := make([]domain.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, infra.ClassifyPgError(op, err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.ClassifyPgError(op, err)
	}
	return items, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var (
		d      domain.Donation
		status string
	)
	if err := row.Scan(
		&d.ID,
		&d.Title,
		&d.Description,
		&d.Contact,
		&d.ImageURL,
		&d.ImageHint,
		&d.OwnerID,
		&d.OwnerName,
		&status,
		&d.IsFeatured,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Status = domain.DonationStatus(status)
	return &d, nil
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
