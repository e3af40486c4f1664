// Package memstore keeps users and donations in process memory. Every
// read-check-write runs under one mutex, so it offers the same atomicity as
// the PostgreSQL repositories and backs STORE_DRIVER=memory and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"donationhub/internal/domain"
)

type donationRecord struct {
	domain.Donation
	seq int64
}

// Store is the shared state behind Users and Donations.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	seq       int64
	users     map[string]*domain.User
	emails    map[string]string
	codes     map[string]string
	donations map[string]*donationRecord
}

func New() *Store {
	return &Store{
		now:       time.Now,
		users:     make(map[string]*domain.User),
		emails:    make(map[string]string),
		codes:     make(map[string]string),
		donations: make(map[string]*donationRecord),
	}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository {
	return &UserRepository{s: s}
}

// Donations returns the donation repository view of the store.
func (s *Store) Donations() *DonationRepository {
	return &DonationRepository{s: s}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	code := strings.ToUpper(user.ConnectionCode)
	if _, taken := s.emails[email]; taken {
		return nil, domain.ErrEmailTaken
	}
	if _, taken := s.codes[code]; taken {
		return nil, domain.ErrCodeTaken
	}

	u := *user
	u.ID = uuid.NewString()
	u.Email = email
	u.ConnectionCode = code
	if u.Role == "" {
		u.Role = domain.UserRoleUser
	}
	if u.Plan == "" {
		u.Plan = domain.UserPlanFree
	}
	u.DonationCount = 0
	u.ContactCount = 0
	u.PasswordHash = append([]byte(nil), user.PasswordHash...)
	u.CreatedAt = s.now().UTC()
	u.UpdatedAt = u.CreatedAt

	s.users[u.ID] = &u
	s.emails[email] = u.ID
	s.codes[code] = u.ID
	out := u
	return &out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.userCopy(id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.emails[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.userCopy(id)
}

func (r *UserRepository) GetByConnectionCode(ctx context.Context, code string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.codes[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.userCopy(id)
}

// List returns every user, newest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *UserRepository) UpdatePlan(ctx context.Context, id string, plan domain.UserPlan) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Plan = plan })
}

func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.UserRole) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	return r.update(id, func(u *domain.User) {
		u.Name = name
		for _, d := range r.s.donations {
			if d.OwnerID == id {
				d.OwnerName = name
			}
		}
	})
}

// Delete removes the user and every donation it owns.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	for did, d := range s.donations {
		if d.OwnerID == id {
			delete(s.donations, did)
		}
	}
	delete(s.emails, u.Email)
	delete(s.codes, u.ConnectionCode)
	delete(s.users, id)
	return nil
}

// ConsumeContact checks and increments the contact counter under the store lock.
func (r *UserRepository) ConsumeContact(ctx context.Context, id string, limit int) (domain.ContactUsage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ContactUsage{}, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ContactUsage{}, domain.ErrNotFound
	}
	usage := domain.ContactUsage{Plan: u.Plan, ContactCount: u.ContactCount}
	if u.Plan == domain.UserPlanFree && u.ContactCount < limit {
		u.ContactCount++
		u.UpdatedAt = s.now().UTC()
		usage.ContactCount = u.ContactCount
		usage.Consumed = true
	}
	return usage, nil
}

func (r *UserRepository) update(id string, mutate func(*domain.User)) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mutate(u)
	u.UpdatedAt = s.now().UTC()
	out := *u
	return &out, nil
}

func (s *Store) userCopy(id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *u
	return &out, nil
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Stats returns the admin summary view of the store.
func (s *Store) Stats() *StatsRepository {
	return &StatsRepository{s: s}
}

type StatsRepository struct {
	s *Store
}

func (r *StatsRepository) Summary(_ context.Context, since time.Time) (domain.MarketplaceStats, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	out := domain.MarketplaceStats{
		Users: len(s.users),
		ByStatus: map[domain.DonationStatus]int{
			domain.DonationStatusAvailable:  0,
			domain.DonationStatusInProgress: 0,
			domain.DonationStatusTaken:      0,
		},
	}
	for _, u := range s.users {
		if u.Plan == domain.UserPlanPremium {
			out.PremiumUsers++
		}
		if u.Role == domain.UserRoleAdmin {
			out.Admins++
		}
		out.ContactsUsed += u.ContactCount
	}
	for _, d := range s.donations {
		out.Donations++
		out.ByStatus[d.Status]++
		if d.IsFeatured {
			out.Featured++
		}
		if !d.CreatedAt.Before(since) {
			out.DonationsSince++
		}
	}
	return out, nil
}

var _ domain.StatsRepository = (*StatsRepository)(nil)
