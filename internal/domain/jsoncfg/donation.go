package jsoncfg

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"donationhub/internal/domain"
)

// DonationJSON is the wire contract for publishing a donation.
type DonationJSON struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Contact     string `json:"contact"`
	ImageURL    string `json:"image_url"`
	ImageHint   string `json:"image_hint"`
	Status      string `json:"status"`
	// Owner is accepted for compatibility with older clients and always
	// discarded; ownership comes from the authenticated session.
	Owner string `json:"owner,omitempty"`
}

const (
	// MinTitleLength is the minimum number of runes in a title.
	MinTitleLength = 3
	// MaxTitleLength caps the title length in runes.
	MaxTitleLength = 120
	// MaxDescriptionLength caps the description length in runes.
	MaxDescriptionLength = 2000
	// MaxContactLength caps the free-text contact string.
	MaxContactLength = 200
	// DefaultImageHint is stored when the client omits an image hint.
	DefaultImageHint = "donation item"
)

// Normalize trims user input and applies server defaults.
func (d *DonationJSON) Normalize() {
	if d == nil {
		return
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Contact = strings.TrimSpace(d.Contact)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	d.ImageHint = strings.TrimSpace(d.ImageHint)
	d.Owner = ""
	if d.ImageHint == "" {
		d.ImageHint = DefaultImageHint
	}
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))
	if d.Status == "" {
		d.Status = string(domain.DonationStatusAvailable)
	}
}

// Validate ensures the payload satisfies the contract before persistence.
func (d DonationJSON) Validate() error {
	n := utf8.RuneCountInString(d.Title)
	if n < MinTitleLength || n > MaxTitleLength {
		return fmt.Errorf("title must be between %d and %d characters", MinTitleLength, MaxTitleLength)
	}
	if utf8.RuneCountInString(d.Description) > MaxDescriptionLength {
		return fmt.Errorf("description must be at most %d characters", MaxDescriptionLength)
	}
	if d.Contact == "" {
		return fmt.Errorf("contact is required")
	}
	if utf8.RuneCountInString(d.Contact) > MaxContactLength {
		return fmt.Errorf("contact must be at most %d characters", MaxContactLength)
	}
	if d.ImageURL != "" {
		u, err := url.Parse(d.ImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("image_url must be an absolute http(s) url")
		}
	}
	if !domain.DonationStatus(d.Status).Valid() {
		return fmt.Errorf("status must be one of available, in_progress, taken")
	}
	return nil
}

// ToDomain converts the payload into a donation without owner attribution.
func (d DonationJSON) ToDomain() domain.Donation {
	return domain.Donation{
		Title:       d.Title,
		Description: d.Description,
		Contact:     d.Contact,
		ImageURL:    d.ImageURL,
		ImageHint:   d.ImageHint,
		Status:      domain.DonationStatus(d.Status),
	}
}
