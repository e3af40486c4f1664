// Package accounts implements the account lifecycle: registration with a
// unique connection code, login, profile edits, deletion and the admin
// operations on plans and roles.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
	"donationhub/internal/feed"
	"donationhub/internal/identity"
)

const (
	DefaultCodeAttempts = 32
	MaxNameLength       = 80
)

type Config struct {
	CodeAttempts int
	AdminEmails  []string
}

type Service struct {
	users    domain.UserRepository
	verifier identity.Verifier
	hasher   identity.Hasher
	tokens   *identity.Tokens
	attempts int
	admins   map[string]struct{}
	genCode  func() (string, error)
	pub      feed.Publisher
	logger   zerolog.Logger
}

func NewService(users domain.UserRepository, verifier identity.Verifier, hasher identity.Hasher, tokens *identity.Tokens, cfg Config, logger zerolog.Logger) *Service {
	attempts := cfg.CodeAttempts
	if attempts <= 0 {
		attempts = DefaultCodeAttempts
	}
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &Service{
		users:    users,
		verifier: verifier,
		hasher:   hasher,
		tokens:   tokens,
		attempts: attempts,
		admins:   admins,
		genCode:  GenerateConnectionCode,
		logger:   logger.With().Str("component", "accounts").Logger(),
	}
}

// WithPublisher announces account removals on the donation feed so cached
// snapshots drop the removed owner's listings.
func (s *Service) WithPublisher(pub feed.Publisher) *Service {
	s.pub = pub
	return s
}

// Register creates a free-plan account and returns it with a session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, "", err
	}
	email, err = normalizeEmail(email)
	if err != nil {
		return nil, "", err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	role := domain.UserRoleUser
	if s.allowlisted(email) {
		role = domain.UserRoleAdmin
	}
	u, err := s.createWithCode(ctx, &domain.User{
		Email:        email,
		Name:         name,
		Role:         role,
		Plan:         domain.UserPlanFree,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(identity.PrincipalFor(u, identity.SchemePassword))
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", u.ID).Msg("account registered")
	return u, token, nil
}

// createWithCode regenerates the connection code on every collision until
// the store accepts one or the attempt budget runs out.
func (s *Service) createWithCode(ctx context.Context, u *domain.User) (*domain.User, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		code, err := s.genCode()
		if err != nil {
			return nil, fmt.Errorf("generate connection code: %w", err)
		}
		u.ConnectionCode = code
		created, err := s.users.Create(ctx, u)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrCodeTaken) {
			return nil, err
		}
		s.logger.Debug().Int("attempt", attempt).Msg("connection code collision")
	}
	return nil, fmt.Errorf("%w: no free connection code after %d attempts", domain.ErrConflict, s.attempts)
}

// Login verifies cred and issues a session token for the resulting user.
func (s *Service) Login(ctx context.Context, cred identity.Credential) (*domain.User, string, error) {
	p, err := s.verifier.Verify(ctx, cred)
	if err != nil {
		return nil, "", err
	}
	u, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(identity.PrincipalFor(u, p.Scheme))
	if err != nil {
		return nil, "", err
	}
	s.logger.Info().Str("user_id", u.ID).Str("scheme", string(p.Scheme)).Msg("login")
	return u, token, nil
}

func (s *Service) Profile(ctx context.Context, actor identity.Principal) (*domain.User, error) {
	if actor.Anonymous() {
		return nil, domain.ErrAuthRequired
	}
	return s.users.GetByID(ctx, actor.UserID)
}

func (s *Service) Rename(ctx context.Context, actor identity.Principal, name string) (*domain.User, error) {
	if actor.Anonymous() {
		return nil, domain.ErrAuthRequired
	}
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}
	return s.users.UpdateName(ctx, actor.UserID, name)
}

// DeleteAccount removes the caller's account and all of its donations.
func (s *Service) DeleteAccount(ctx context.Context, actor identity.Principal) error {
	if actor.Anonymous() {
		return domain.ErrAuthRequired
	}
	if err := s.users.Delete(ctx, actor.UserID); err != nil {
		return err
	}
	s.ownerRemoved(actor.UserID)
	s.logger.Info().Str("user_id", actor.UserID).Msg("account deleted")
	return nil
}

func (s *Service) ListUsers(ctx context.Context, actor identity.Principal) ([]domain.User, error) {
	if err := s.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// SetPlan changes a user's plan. It is the only path from free to premium.
func (s *Service) SetPlan(ctx context.Context, actor identity.Principal, userID string, plan domain.UserPlan) (*domain.User, error) {
	if err := s.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	return s.ApplyPlan(ctx, userID, plan)
}

// ApplyPlan changes a plan without an acting principal. It backs billing
// events and the userplan CLI.
func (s *Service) ApplyPlan(ctx context.Context, userID string, plan domain.UserPlan) (*domain.User, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedPlan, plan)
	}
	u, err := s.users.UpdatePlan(ctx, userID, plan)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("plan", string(plan)).Msg("plan changed")
	return u, nil
}

func (s *Service) SetRole(ctx context.Context, actor identity.Principal, userID string, role domain.UserRole) (*domain.User, error) {
	if err := s.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	return s.users.UpdateRole(ctx, userID, role)
}

func (s *Service) DeleteUser(ctx context.Context, actor identity.Principal, userID string) error {
	if err := s.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.ownerRemoved(userID)
	s.logger.Info().Str("user_id", userID).Str("admin_id", actor.UserID).Msg("user deleted by admin")
	return nil
}

// IsAdmin reports whether actor is an admin by role or by allowlisted e-mail.
// The stored record is authoritative over token claims.
func (s *Service) IsAdmin(ctx context.Context, actor identity.Principal) (bool, error) {
	if actor.Anonymous() {
		return false, domain.ErrAuthRequired
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, domain.ErrAuthRequired
	}
	if err != nil {
		return false, err
	}
	return u.IsAdmin() || s.allowlisted(u.Email), nil
}

func (s *Service) RequireAdmin(ctx context.Context, actor identity.Principal) error {
	ok, err := s.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) ownerRemoved(userID string) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(feed.Event{Kind: feed.EventOwnerRemoved, OwnerID: userID, At: time.Now().UTC()})
}

func (s *Service) allowlisted(email string) bool {
	_, ok := s.admins[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidInput, MaxNameLength)
	}
	return name, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	return email, nil
}
