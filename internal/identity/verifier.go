package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"donationhub/internal/domain"
)

// Verifier turns a credential into a principal or ErrDenied.
type Verifier interface {
	Verify(ctx context.Context, cred Credential) (Principal, error)
}

// IDTokenVerifier validates ID tokens from an external identity provider.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, raw string) (ExternalClaims, error)
}

// LocalVerifier checks credentials against the user store.
type LocalVerifier struct {
	users  domain.UserRepository
	hasher Hasher
	idp    IDTokenVerifier
	// compared when the e-mail is unknown so both paths cost one bcrypt run
	dummy []byte
}

func NewLocalVerifier(users domain.UserRepository, hasher Hasher) *LocalVerifier {
	cost := hasher.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &LocalVerifier{users: users, hasher: hasher, dummy: dummy}
}

// WithIDTokens enables IDTokenCredential. The token's verified e-mail must
// belong to an existing account.
func (v *LocalVerifier) WithIDTokens(idp IDTokenVerifier) *LocalVerifier {
	v.idp = idp
	return v
}

func (v *LocalVerifier) Verify(ctx context.Context, cred Credential) (Principal, error) {
	switch c := cred.(type) {
	case PasswordCredential:
		return v.verifyPassword(ctx, c)
	case ConnectionCodeCredential:
		return v.verifyCode(ctx, c)
	case IDTokenCredential:
		return v.verifyIDToken(ctx, c)
	case nil:
		return Principal{}, domain.ErrAuthRequired
	}
	return Principal{}, fmt.Errorf("%w: unsupported credential", domain.ErrDenied)
}

func (v *LocalVerifier) verifyPassword(ctx context.Context, c PasswordCredential) (Principal, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" || c.Password == "" {
		return Principal{}, domain.ErrDenied
	}
	u, err := v.users.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		_ = v.hasher.Check(v.dummy, c.Password)
		return Principal{}, domain.ErrDenied
	}
	if err != nil {
		return Principal{}, err
	}
	if err := v.hasher.Check(u.PasswordHash, c.Password); err != nil {
		return Principal{}, err
	}
	return PrincipalFor(u, SchemePassword), nil
}

func (v *LocalVerifier) verifyCode(ctx context.Context, c ConnectionCodeCredential) (Principal, error) {
	code := NormalizeCode(c.Code)
	if !ValidCode(code) {
		return Principal{}, domain.ErrDenied
	}
	u, err := v.users.GetByConnectionCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return Principal{}, domain.ErrDenied
	}
	if err != nil {
		return Principal{}, err
	}
	if email := strings.TrimSpace(c.Email); email != "" && !strings.EqualFold(email, u.Email) {
		return Principal{}, domain.ErrDenied
	}
	return PrincipalFor(u, SchemeConnectionCode), nil
}

func (v *LocalVerifier) verifyIDToken(ctx context.Context, c IDTokenCredential) (Principal, error) {
	if v.idp == nil {
		return Principal{}, fmt.Errorf("%w: id token login is not configured", domain.ErrDenied)
	}
	raw := strings.TrimSpace(c.Token)
	if raw == "" {
		return Principal{}, domain.ErrDenied
	}
	claims, err := v.idp.VerifyIDToken(ctx, raw)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Principal{}, fmt.Errorf("%w: %w", domain.ErrTransient, err)
		}
		return Principal{}, fmt.Errorf("%w: %w", domain.ErrDenied, err)
	}
	if claims.Email == "" || !claims.EmailVerified {
		return Principal{}, fmt.Errorf("%w: provider did not vouch for an e-mail", domain.ErrDenied)
	}
	u, err := v.users.GetByEmail(ctx, claims.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return Principal{}, domain.ErrDenied
	}
	if err != nil {
		return Principal{}, err
	}
	return PrincipalFor(u, SchemeIDToken), nil
}

var _ Verifier = (*LocalVerifier)(nil)
