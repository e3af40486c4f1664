package handlers

import (
	"time"

	"donationhub/internal/domain"
)

type userDTO struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	Plan           string    `json:"plan"`
	DonationCount  int       `json:"donation_count"`
	ContactCount   int       `json:"contact_count"`
	ConnectionCode string    `json:"connection_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// toUserDTO hides the connection code unless self is set.
func toUserDTO(u *domain.User, self bool) userDTO {
	dto := userDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          string(u.Role),
		Plan:          string(u.Plan),
		DonationCount: u.DonationCount,
		ContactCount:  u.ContactCount,
		CreatedAt:     u.CreatedAt,
	}
	if self {
		dto.ConnectionCode = u.ConnectionCode
	}
	return dto
}

type donationDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Contact     string    `json:"contact,omitempty"`
	ImageURL    string    `json:"image_url"`
	ImageHint   string    `json:"image_hint"`
	OwnerID     string    `json:"owner_id"`
	OwnerName   string    `json:"owner_name"`
	Status      string    `json:"status"`
	IsFeatured  bool      `json:"is_featured"`
	CreatedAt   time.Time `json:"created_at"`
}

// toDonationDTO reveals the contact only to the listing's owner; everyone
// else goes through the contact endpoint.
func toDonationDTO(d *domain.Donation, viewerID string) donationDTO {
	dto := donationDTO{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		ImageHint:   d.ImageHint,
		OwnerID:     d.OwnerID,
		OwnerName:   d.OwnerName,
		Status:      string(d.Status),
		IsFeatured:  d.IsFeatured,
		CreatedAt:   d.CreatedAt,
	}
	if viewerID != "" && viewerID == d.OwnerID {
		dto.Contact = d.Contact
	}
	return dto
}

func toDonationDTOs(items []domain.Donation, viewerID string) []donationDTO {
	out := make([]donationDTO, 0, len(items))
	for i := range items {
		out = append(out, toDonationDTO(&items[i], viewerID))
	}
	return out
}
