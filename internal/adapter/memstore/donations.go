package memstore

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"donationhub/internal/domain"
)

type DonationRepository struct {
	s *Store
}

// Create locks the store, enforces the free donation limit and inserts the
// listing for ownerID.
func (r *DonationRepository) Create(ctx context.Context, ownerID string, donation *domain.Donation, freeLimit int) (*domain.Donation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if freeLimit > 0 && owner.Plan == domain.UserPlanFree && owner.DonationCount >= freeLimit {
		return nil, domain.ErrQuotaExceeded
	}
	owner.DonationCount++
	owner.UpdatedAt = s.now().UTC()

	rec := &donationRecord{Donation: *donation, seq: s.nextSeq()}
	rec.ID = uuid.NewString()
	rec.OwnerID = ownerID
	rec.OwnerName = owner.Name
	if rec.Status == "" {
		rec.Status = domain.DonationStatusAvailable
	}
	rec.IsFeatured = false
	rec.CreatedAt = s.now().UTC()
	s.donations[rec.ID] = rec

	out := rec.Donation
	return &out, nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := d.Donation
	return &out, nil
}

// ListAll returns the public feed, newest first.
func (r *DonationRepository) ListAll(ctx context.Context, filter domain.ListFilter) ([]domain.Donation, error) {
	filter = filter.Normalized()
	q := strings.ToLower(filter.Query)
	out := r.collect(func(d *donationRecord) bool {
		if filter.FeaturedOnly && !d.IsFeatured {
			return false
		}
		if q == "" {
			return true
		}
		return strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Description), q)
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *DonationRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Donation, error) {
	return r.collect(func(d *donationRecord) bool { return d.OwnerID == ownerID }), nil
}

func (r *DonationRepository) UpdateStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error) {
	return r.update(id, func(d *domain.Donation) { d.Status = status })
}

func (r *DonationRepository) SetFeatured(ctx context.Context, id string, featured bool) (*domain.Donation, error) {
	return r.update(id, func(d *domain.Donation) { d.IsFeatured = featured })
}

func (r *DonationRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.donations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.donations, id)
	return nil
}

func (r *DonationRepository) update(id string, mutate func(*domain.Donation)) (*domain.Donation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	mutate(&d.Donation)
	out := d.Donation
	return &out, nil
}

func (r *DonationRepository) collect(keep func(*donationRecord) bool) []domain.Donation {
	r.s.mu.Lock()
	recs := make([]*donationRecord, 0, len(r.s.donations))
	for _, d := range r.s.donations {
		if keep(d) {
			recs = append(recs, d)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })
	out := make([]domain.Donation, len(recs))
	for i, d := range recs {
		out[i] = d.Donation
	}
	r.s.mu.Unlock()
	return out
}

var _ domain.DonationRepository = (*DonationRepository)(nil)
