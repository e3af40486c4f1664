package repo

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/domain"
	"donationhub/internal/sqlinline"
)

func donationValues(id, owner string, featured bool) []any {
	return []any{
		id,
		"Winter coat",
		"Size M",
		"+221 77 000 00 00",
		"https://cdn.example.com/coat.jpg",
		"coat",
		owner,
		"Ana",
		"available",
		featured,
		time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestDonationCreate_AttributesToOwnerArgument(t *testing.T) {
	created := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	db := &fakeSQL{row: []any{
		pgtype.Text{String: "d-1", Valid: true},
		pgtype.Text{String: "Ana", Valid: true},
		pgtype.Timestamptz{Time: created, Valid: true},
	}}
	repo := NewDonationRepository(db)

	got, err := repo.Create(context.Background(), "owner-a", &domain.Donation{
		Title:   "Winter coat",
		Contact: "call me",
		OwnerID: "owner-b",
	}, 3)
	require.NoError(t, err)

	assert.Equal(t, "d-1", got.ID)
	assert.Equal(t, "owner-a", got.OwnerID)
	assert.Equal(t, "Ana", got.OwnerName)
	assert.Equal(t, domain.DonationStatusAvailable, got.Status)
	assert.Equal(t, created, got.CreatedAt)

	c := db.last()
	assert.Equal(t, sqlinline.QInsertDonation, c.query)
	assert.Equal(t, "owner-a", c.args[0])
	assert.Equal(t, "available", c.args[6])
	assert.Equal(t, 3, c.args[7])
}

func TestDonationCreate_LimitReached(t *testing.T) {
	db := &fakeSQL{row: []any{pgtype.Text{}, pgtype.Text{}, pgtype.Timestamptz{}}}
	_, err := NewDonationRepository(db).Create(context.Background(), "owner-a", &domain.Donation{Title: "x"}, 3)
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)
}

func TestDonationCreate_UnknownOwner(t *testing.T) {
	_, err := NewDonationRepository(&fakeSQL{}).Create(context.Background(), "ghost", &domain.Donation{Title: "x"}, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDonationListAll_NormalizesFilter(t *testing.T) {
	db := &fakeSQL{rows: [][]any{donationValues("d-2", "o", true), donationValues("d-1", "o", false)}}
	items, err := NewDonationRepository(db).ListAll(context.Background(), domain.ListFilter{Query: "  coat ", FeaturedOnly: true, Limit: 5000})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].IsFeatured)

	c := db.last()
	assert.Equal(t, sqlinline.QListDonations, c.query)
	assert.Equal(t, []any{"coat", true, domain.MaxFeedLimit}, c.args)
}

func TestDonationListByOwner_Empty(t *testing.T) {
	items, err := NewDonationRepository(&fakeSQL{}).ListByOwner(context.Background(), "o")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDonationUpdateStatus(t *testing.T) {
	values := donationValues("d-1", "o", false)
	values[8] = "taken"
	db := &fakeSQL{row: values}
	d, err := NewDonationRepository(db).UpdateStatus(context.Background(), "d-1", domain.DonationStatusTaken)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationStatusTaken, d.Status)
	assert.Equal(t, []any{"d-1", "taken"}, db.last().args)
}

func TestDonationDelete_NotFound(t *testing.T) {
	err := NewDonationRepository(&fakeSQL{}).Delete(context.Background(), "d-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDonationGetByID_MalformedIDIsNotFound(t *testing.T) {
	db := &fakeSQL{err: &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}}
	_, err := NewDonationRepository(db).GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, domain.Retryable(err))
}
