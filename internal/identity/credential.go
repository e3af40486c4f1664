// Package identity verifies credentials and issues session tokens. Callers
// past this package only ever see a Principal; the scheme that produced it is
// informational.
package identity

import (
	"strings"

	"donationhub/internal/domain"
)

// Scheme names the credential kind a principal was verified with.
type Scheme string

const (
	SchemePassword       Scheme = "password"
	SchemeConnectionCode Scheme = "connection_code"
	SchemeSession        Scheme = "session"
	SchemeIDToken        Scheme = "id_token"
)

// Credential is implemented only by the credential types in this package.
type Credential interface {
	scheme() Scheme
}

// PasswordCredential is an e-mail and password pair.
type PasswordCredential struct {
	Email    string
	Password string
}

func (PasswordCredential) scheme() Scheme { return SchemePassword }

// ConnectionCodeCredential logs in with the 6-character connection code.
// Email is optional; when present it must match the code's owner.
type ConnectionCodeCredential struct {
	Code  string
	Email string
}

func (ConnectionCodeCredential) scheme() Scheme { return SchemeConnectionCode }

// IDTokenCredential is an ID token from the configured external identity
// provider.
type IDTokenCredential struct {
	Token string
}

func (IDTokenCredential) scheme() Scheme { return SchemeIDToken }

// ExternalClaims is what an external identity provider vouches for.
type ExternalClaims struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// NormalizeCode upper-cases and trims a connection code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the connection code shape.
func ValidCode(code string) bool {
	if len(code) != domain.ConnectionCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(domain.ConnectionCodeAlphabet, r) {
			return false
		}
	}
	return true
}

// Principal is an authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Plan   domain.UserPlan
	Role   domain.UserRole
	Scheme Scheme
}

// Anonymous reports whether p carries no identity.
func (p Principal) Anonymous() bool {
	return strings.TrimSpace(p.UserID) == ""
}

// IsAdmin reports whether p carries the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.UserRoleAdmin
}

// PrincipalFor builds the principal for a stored user.
func PrincipalFor(u *domain.User, scheme Scheme) Principal {
	return Principal{UserID: u.ID, Email: u.Email, Plan: u.Plan, Role: u.Role, Scheme: scheme}
}
