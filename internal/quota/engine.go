// Package quota gates contact reveals behind the free-plan contact limit.
//
// The limit is lifetime on the free plan: counters are never reset, and
// moving a user to premium bypasses the check without touching the count.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
	"donationhub/internal/identity"
)

type Outcome string

const (
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUpgradeRequired Outcome = "upgrade_required"
)

const (
	DefaultContactLimit  = 3
	DefaultDonationLimit = 3
	DefaultRetryBudget   = 3
)

// Decision is the result of a contact attempt. Contact is only set when the
// outcome is OutcomeAllowed.
type Decision struct {
	Outcome      Outcome
	Contact      string
	ContactCount int
	// Remaining is -1 for plans without a limit.
	Remaining int
}

type Config struct {
	ContactLimit  int
	DonationLimit int
	RetryBudget   int
	Backoff       time.Duration
}

type Engine struct {
	users     domain.UserRepository
	donations domain.DonationRepository
	cfg       Config
	logger    zerolog.Logger
}

func NewEngine(users domain.UserRepository, donations domain.DonationRepository, cfg Config, logger zerolog.Logger) *Engine {
	if cfg.ContactLimit < 0 {
		cfg.ContactLimit = DefaultContactLimit
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = DefaultRetryBudget
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 20 * time.Millisecond
	}
	return &Engine{users: users, donations: donations, cfg: cfg, logger: logger.With().Str("component", "quota").Logger()}
}

func (e *Engine) ContactLimit() int {
	return e.cfg.ContactLimit
}

// DonationAllowance is the free-plan donation cap passed to the donation
// store's create statement. Zero disables it.
func (e *Engine) DonationAllowance() int {
	if e.cfg.DonationLimit < 0 {
		return 0
	}
	return e.cfg.DonationLimit
}

// AttemptContact reveals the donation's contact to actor when its plan allows
// it, consuming one unit of free quota. Any store failure fails closed: no
// contact is returned and the error is typed for the caller.
func (e *Engine) AttemptContact(ctx context.Context, actor identity.Principal, donationID string) (Decision, error) {
	if actor.Anonymous() {
		return Decision{}, domain.ErrAuthRequired
	}
	log := e.logger.With().Str("user_id", actor.UserID).Str("donation_id", donationID).Logger()

	donation, err := e.donations.GetByID(ctx, donationID)
	if err != nil {
		log.Warn().Err(err).Msg("contact attempt: donation lookup failed")
		return Decision{}, err
	}

	usage, err := e.consume(ctx, actor.UserID)
	if err != nil {
		log.Error().Err(err).Msg("contact attempt failed closed")
		return Decision{}, err
	}

	d := Decision{ContactCount: usage.ContactCount, Remaining: e.remaining(usage)}
	switch {
	case usage.Plan == domain.UserPlanPremium, usage.Consumed:
		d.Outcome = OutcomeAllowed
		d.Contact = donation.Contact
	default:
		d.Outcome = OutcomeUpgradeRequired
	}
	log.Info().
		Str("outcome", string(d.Outcome)).
		Str("plan", string(usage.Plan)).
		Int("contact_count", d.ContactCount).
		Msg("contact attempt")
	return d, nil
}

func (e *Engine) consume(ctx context.Context, userID string) (domain.ContactUsage, error) {
	var lastErr error
	for attempt := 0; attempt < e.cfg.RetryBudget; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.ContactUsage{}, fmt.Errorf("%w: %w", domain.ErrTransient, ctx.Err())
			case <-time.After(e.cfg.Backoff * time.Duration(attempt)):
			}
		}
		usage, err := e.users.ConsumeContact(ctx, userID, e.cfg.ContactLimit)
		if err == nil {
			return usage, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.ContactUsage{}, err
		}
		lastErr = err
		e.logger.Debug().Err(err).Str("user_id", userID).Int("attempt", attempt+1).Msg("contact consume conflict, retrying")
	}
	return domain.ContactUsage{}, lastErr
}

func (e *Engine) remaining(u domain.ContactUsage) int {
	if u.Plan == domain.UserPlanPremium {
		return -1
	}
	if r := e.cfg.ContactLimit - u.ContactCount; r > 0 {
		return r
	}
	return 0
}
