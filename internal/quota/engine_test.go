package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/adapter/memstore"
	"donationhub/internal/domain"
	"donationhub/internal/identity"
)

type fixture struct {
	store    *memstore.Store
	engine   *Engine
	donor    *domain.User
	seeker   *domain.User
	donation *domain.Donation
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	donor, err := store.Users().Create(ctx, &domain.User{Email: "donor@example.com", Name: "Donor", ConnectionCode: "DONOR1"})
	require.NoError(t, err)
	seeker, err := store.Users().Create(ctx, &domain.User{Email: "seeker@example.com", Name: "Seeker", ConnectionCode: "SEEK01"})
	require.NoError(t, err)
	donation, err := store.Donations().Create(ctx, donor.ID, &domain.Donation{Title: "Crib", Contact: "+221 70 123 45 67"}, 0)
	require.NoError(t, err)

	engine := NewEngine(store.Users(), store.Donations(), Config{ContactLimit: 3, RetryBudget: 3, Backoff: time.Millisecond}, zerolog.Nop())
	return &fixture{store: store, engine: engine, donor: donor, seeker: seeker, donation: donation}
}

func (f *fixture) actor() identity.Principal {
	return identity.Principal{UserID: f.seeker.ID}
}

func (f *fixture) contactCount(t *testing.T) int {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), f.seeker.ID)
	require.NoError(t, err)
	return u.ContactCount
}

func TestAttemptContact_FreeLimitThenUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAllowed, d.Outcome)
		assert.Equal(t, f.donation.Contact, d.Contact)
		assert.Equal(t, i, d.ContactCount)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpgradeRequired, d.Outcome)
	assert.Empty(t, d.Contact)
	assert.Equal(t, 3, d.ContactCount)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, 3, f.contactCount(t))
}

func TestAttemptContact_ScenarioFromTwo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := f.store.Users().ConsumeContact(ctx, f.seeker.ID, 3)
		require.NoError(t, err)
	}

	d, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAllowed, d.Outcome)
	assert.Equal(t, 3, f.contactCount(t))

	d, err = f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpgradeRequired, d.Outcome)
	assert.Equal(t, 3, f.contactCount(t))
}

func TestAttemptContact_PremiumNeverMutates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.Users().UpdatePlan(ctx, f.seeker.ID, domain.UserPlanPremium)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		d, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAllowed, d.Outcome)
		assert.Equal(t, f.donation.Contact, d.Contact)
		assert.Equal(t, -1, d.Remaining)
	}
	assert.Equal(t, 0, f.contactCount(t))
}

func TestAttemptContact_UpgradeAtLimitKeepsCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
		require.NoError(t, err)
	}
	_, err := f.store.Users().UpdatePlan(ctx, f.seeker.ID, domain.UserPlanPremium)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		d, err := f.engine.AttemptContact(ctx, f.actor(), f.donation.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAllowed, d.Outcome)
	}
	assert.Equal(t, 3, f.contactCount(t))
}

func TestAttemptContact_ConcurrentLastUnit(t *testing.T) {
	for run := 0; run < 25; run++ {
		f := newFixture(t)
		ctx := context.Background()
		for i := 0; i < 2; i++ {
			_, err := f.store.Users().ConsumeContact(ctx, f.seeker.ID, 3)
			require.NoError(t, err)
		}
		other, err := f.store.Donations().Create(ctx, f.donor.ID, &domain.Donation{Title: "Pram", Contact: "mail me"}, 0)
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			decisions [2]Decision
			errs      [2]error
		)
		targets := [2]string{f.donation.ID, other.ID}
		for i := range targets {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				decisions[i], errs[i] = f.engine.AttemptContact(ctx, f.actor(), targets[i])
			}(i)
		}
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		outcomes := map[Outcome]int{}
		for _, d := range decisions {
			outcomes[d.Outcome]++
		}
		assert.Equal(t, map[Outcome]int{OutcomeAllowed: 1, OutcomeUpgradeRequired: 1}, outcomes)
		assert.Equal(t, 3, f.contactCount(t))
	}
}

func TestAttemptContact_Anonymous(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.AttemptContact(context.Background(), identity.Principal{}, f.donation.ID)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
	assert.Equal(t, 0, f.contactCount(t))
}

func TestAttemptContact_UnknownDonation(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.AttemptContact(context.Background(), f.actor(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.contactCount(t))
}

func TestAttemptContact_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.AttemptContact(context.Background(), identity.Principal{UserID: "ghost"}, f.donation.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// flakyUsers fails ConsumeContact with the scripted errors before delegating.
type flakyUsers struct {
	domain.UserRepository
	errs  []error
	calls int
}

func (f *flakyUsers) ConsumeContact(ctx context.Context, id string, limit int) (domain.ContactUsage, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return domain.ContactUsage{}, err
	}
	return f.UserRepository.ConsumeContact(ctx, id, limit)
}

func TestAttemptContact_RetriesConflicts(t *testing.T) {
	f := newFixture(t)
	users := &flakyUsers{UserRepository: f.store.Users(), errs: []error{domain.ErrConflict, domain.ErrConflict}}
	engine := NewEngine(users, f.store.Donations(), Config{ContactLimit: 3, RetryBudget: 3, Backoff: time.Millisecond}, zerolog.Nop())

	d, err := engine.AttemptContact(context.Background(), f.actor(), f.donation.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAllowed, d.Outcome)
	assert.Equal(t, 3, users.calls)
	assert.Equal(t, 1, f.contactCount(t))
}

func TestAttemptContact_FailsClosed(t *testing.T) {
	cases := []struct {
		name  string
		errs  []error
		calls int
		want  error
	}{
		{"conflict budget exhausted", []error{domain.ErrConflict, domain.ErrConflict, domain.ErrConflict}, 3, domain.ErrConflict},
		{"transient store", []error{domain.ErrTransient}, 1, domain.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			users := &flakyUsers{UserRepository: f.store.Users(), errs: tc.errs}
			engine := NewEngine(users, f.store.Donations(), Config{ContactLimit: 3, RetryBudget: 3, Backoff: time.Millisecond}, zerolog.Nop())

			d, err := engine.AttemptContact(context.Background(), f.actor(), f.donation.ID)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, domain.Retryable(err))
			assert.Empty(t, d.Contact)
			assert.Equal(t, tc.calls, users.calls)
			assert.Equal(t, 0, f.contactCount(t))
		})
	}
}

func TestDonationAllowance(t *testing.T) {
	assert.Equal(t, 3, NewEngine(nil, nil, Config{DonationLimit: 3}, zerolog.Nop()).DonationAllowance())
	assert.Equal(t, 0, NewEngine(nil, nil, Config{DonationLimit: -1}, zerolog.Nop()).DonationAllowance())
}
