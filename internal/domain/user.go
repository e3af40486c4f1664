package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree    UserPlan = "free"
	UserPlanPremium UserPlan = "premium"
)

// Valid reports whether p is a known plan.
func (p UserPlan) Valid() bool {
	return p == UserPlanFree || p == UserPlanPremium
}

// ConnectionCodeLength is the number of characters in a connection code.
const ConnectionCodeLength = 6

// ConnectionCodeAlphabet lists the characters a connection code is drawn from.
const ConnectionCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// User represents an account within the marketplace.
type User struct {
	ID             string
	Email          string
	Name           string
	Role           UserRole
	Plan           UserPlan
	DonationCount  int
	ContactCount   int
	ConnectionCode string
	PasswordHash   []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsFree reports whether the user is using the free plan.
func (u User) IsFree() bool {
	return u.Plan != UserPlanPremium
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// ContactUsage is the result of an atomic contact-quota consumption.
type ContactUsage struct {
	Plan         UserPlan
	ContactCount int
	// Consumed is true only when the counter was incremented by this call.
	Consumed bool
}
