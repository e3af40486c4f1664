package domain

import "context"

// UserRepository defines access methods for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByConnectionCode(ctx context.Context, code string) (*User, error)
	List(ctx context.Context) ([]User, error)
	UpdatePlan(ctx context.Context, id string, plan UserPlan) (*User, error)
	UpdateRole(ctx context.Context, id string, role UserRole) (*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	// Delete removes the user and every donation owned by it.
	Delete(ctx context.Context, id string) error
	// ConsumeContact atomically checks the free-plan contact limit and, when
	// under it, increments the counter by exactly one.
	ConsumeContact(ctx context.Context, id string, limit int) (ContactUsage, error)
}

// DonationRepository handles donation persistence.
type DonationRepository interface {
	// Create inserts the donation for ownerID and bumps the owner's donation
	// counter in one atomic unit. A positive freeLimit caps free-plan owners.
	Create(ctx context.Context, ownerID string, donation *Donation, freeLimit int) (*Donation, error)
	GetByID(ctx context.Context, id string) (*Donation, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Donation, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Donation, error)
	UpdateStatus(ctx context.Context, id string, status DonationStatus) (*Donation, error)
	SetFeatured(ctx context.Context, id string, featured bool) (*Donation, error)
	Delete(ctx context.Context, id string) error
}
