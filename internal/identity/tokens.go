package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"donationhub/internal/domain"
)

const tokenIssuer = "donationhub"

// Claims is the session token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Plan  string `json:"plan"`
	Role  string `json:"role"`
}

// Tokens issues and parses HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(p Principal) (string, error) {
	if p.Anonymous() {
		return "", domain.ErrAuthRequired
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email: p.Email,
		Plan:  string(p.Plan),
		Role:  string(p.Role),
	})
	return token.SignedString(t.secret)
}

// Parse validates a token and returns the principal it was issued for.
// Every failure wraps ErrAuthRequired.
func (t *Tokens) Parse(raw string) (Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", domain.ErrAuthRequired, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: %w", domain.ErrAuthRequired, errors.New("invalid token"))
	}
	return Principal{
		UserID: claims.Subject,
		Email:  claims.Email,
		Plan:   domain.UserPlan(claims.Plan),
		Role:   domain.UserRole(claims.Role),
		Scheme: SchemeSession,
	}, nil
}
