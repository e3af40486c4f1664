// Package listings publishes, lists and moderates donations. Every mutation
// is announced on the feed.
package listings

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
	"donationhub/internal/domain/jsoncfg"
	"donationhub/internal/feed"
	"donationhub/internal/identity"
)

// AdminChecker decides whether a principal may moderate.
type AdminChecker interface {
	IsAdmin(ctx context.Context, actor identity.Principal) (bool, error)
}

// Allowance supplies the free-plan donation cap; zero disables it.
type Allowance interface {
	DonationAllowance() int
}

type Service struct {
	donations domain.DonationRepository
	admins    AdminChecker
	allowance Allowance
	pub       feed.Publisher
	cache     *feed.Cache
	logger    zerolog.Logger
}

func NewService(donations domain.DonationRepository, admins AdminChecker, allowance Allowance, pub feed.Publisher, cache *feed.Cache, logger zerolog.Logger) *Service {
	return &Service{
		donations: donations,
		admins:    admins,
		allowance: allowance,
		pub:       pub,
		cache:     cache,
		logger:    logger.With().Str("component", "listings").Logger(),
	}
}

// Create publishes a donation owned by actor. Any owner in the payload is
// discarded.
func (s *Service) Create(ctx context.Context, actor identity.Principal, in jsoncfg.DonationJSON) (*domain.Donation, error) {
	if actor.Anonymous() {
		return nil, domain.ErrAuthRequired
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	d := in.ToDomain()
	d.OwnerID = actor.UserID

	created, err := s.donations.Create(ctx, actor.UserID, &d, s.allowance.DonationAllowance())
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", actor.UserID).Msg("create donation failed")
		return nil, err
	}
	s.publish(feed.EventCreated, created.ID, created)
	s.logger.Info().Str("user_id", actor.UserID).Str("donation_id", created.ID).Msg("donation created")
	return created, nil
}

// Feed returns the public feed. The unfiltered first page is served from the
// cache when one is configured.
func (s *Service) Feed(ctx context.Context, filter domain.ListFilter) ([]domain.Donation, error) {
	filter = filter.Normalized()
	if s.cache != nil && filter == (domain.ListFilter{Limit: domain.DefaultFeedLimit}) {
		return s.cache.Get(ctx, func(ctx context.Context) ([]domain.Donation, error) {
			return s.donations.ListAll(ctx, filter)
		})
	}
	return s.donations.ListAll(ctx, filter)
}

func (s *Service) Search(ctx context.Context, query string) ([]domain.Donation, error) {
	return s.Feed(ctx, domain.ListFilter{Query: query})
}

func (s *Service) ListMine(ctx context.Context, actor identity.Principal) ([]domain.Donation, error) {
	if actor.Anonymous() {
		return nil, domain.ErrAuthRequired
	}
	return s.donations.ListByOwner(ctx, actor.UserID)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Donation, error) {
	return s.donations.GetByID(ctx, id)
}

// SetStatus updates a listing's status for its owner or an admin. When the
// store rejects the update the current record is re-read and returned with
// the error so callers can drop their tentative state.
func (s *Service) SetStatus(ctx context.Context, actor identity.Principal, id string, status domain.DonationStatus) (*domain.Donation, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	current, err := s.authorize(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	updated, err := s.donations.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logger.Warn().Err(err).Str("donation_id", id).Str("status", string(status)).Msg("status update failed, reloading")
		authoritative, rerr := s.donations.GetByID(ctx, id)
		if rerr != nil {
			return nil, err
		}
		return authoritative, err
	}
	s.publish(feed.EventUpdated, updated.ID, updated)
	return updated, nil
}

// ToggleFeatured flips the featured flag. Admin only.
func (s *Service) ToggleFeatured(ctx context.Context, actor identity.Principal, id string) (*domain.Donation, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	current, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.donations.SetFeatured(ctx, id, !current.IsFeatured)
	if err != nil {
		return nil, err
	}
	s.publish(feed.EventUpdated, updated.ID, updated)
	return updated, nil
}

// Delete removes a listing for its owner or an admin.
func (s *Service) Delete(ctx context.Context, actor identity.Principal, id string) error {
	if _, err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.donations.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(feed.EventDeleted, id, nil)
	s.logger.Info().Str("user_id", actor.UserID).Str("donation_id", id).Msg("donation deleted")
	return nil
}

// authorize loads the listing and checks actor owns it or is an admin.
func (s *Service) authorize(ctx context.Context, actor identity.Principal, id string) (*domain.Donation, error) {
	if actor.Anonymous() {
		return nil, domain.ErrAuthRequired
	}
	current, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID == actor.UserID {
		return current, nil
	}
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *Service) requireAdmin(ctx context.Context, actor identity.Principal) error {
	if actor.Anonymous() {
		return domain.ErrAuthRequired
	}
	ok, err := s.admins.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) publish(kind feed.EventKind, id string, d *domain.Donation) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(feed.Event{Kind: kind, DonationID: id, Donation: d, At: time.Now().UTC()})
}
