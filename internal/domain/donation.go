package domain

import (
	"strings"
	"time"
)

// DonationStatus enumerates listing availability.
type DonationStatus string

const (
	DonationStatusAvailable  DonationStatus = "available"
	DonationStatusInProgress DonationStatus = "in_progress"
	DonationStatusTaken      DonationStatus = "taken"
)

// Valid reports whether s is a known status.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusAvailable, DonationStatusInProgress, DonationStatusTaken:
		return true
	}
	return false
}

// Donation represents an item published by a donor.
type Donation struct {
	ID          string
	Title       string
	Description string
	Contact     string
	ImageURL    string
	ImageHint   string
	OwnerID     string
	OwnerName   string
	Status      DonationStatus
	IsFeatured  bool
	CreatedAt   time.Time
}

// ListFilter narrows the public feed.
type ListFilter struct {
	Query        string
	FeaturedOnly bool
	Limit        int
}

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 200
)

// Normalized returns f with the query trimmed and the limit clamped.
func (f ListFilter) Normalized() ListFilter {
	f.Query = strings.TrimSpace(f.Query)
	if f.Limit <= 0 {
		f.Limit = DefaultFeedLimit
	}
	if f.Limit > MaxFeedLimit {
		f.Limit = MaxFeedLimit
	}
	return f
}
