package jsoncfg

import (
	"strings"
	"testing"

	"donationhub/internal/domain"
)

func TestDonationJSONNormalizeDefaults(t *testing.T) {
	d := &DonationJSON{Title: "  Chaise  ", Contact: " 0600 ", Owner: "someone-else"}
	d.Normalize()

	if d.Title != "Chaise" {
		t.Fatalf("Title = %q, want %q", d.Title, "Chaise")
	}
	if d.Contact != "0600" {
		t.Fatalf("Contact = %q, want %q", d.Contact, "0600")
	}
	if d.Status != string(domain.DonationStatusAvailable) {
		t.Fatalf("Status = %q, want %q", d.Status, domain.DonationStatusAvailable)
	}
	if d.ImageHint != DefaultImageHint {
		t.Fatalf("ImageHint = %q, want %q", d.ImageHint, DefaultImageHint)
	}
	if d.Owner != "" {
		t.Fatalf("Owner should be discarded, got %q", d.Owner)
	}
}

func TestDonationJSONValidate(t *testing.T) {
	valid := DonationJSON{Title: "Table", Contact: "me@example.com", Status: "available"}
	tests := []struct {
		name    string
		mutate  func(d *DonationJSON)
		wantErr string
	}{
		{name: "valid"},
		{name: "short title", mutate: func(d *DonationJSON) { d.Title = "ab" }, wantErr: "title"},
		{name: "long title", mutate: func(d *DonationJSON) { d.Title = strings.Repeat("x", MaxTitleLength+1) }, wantErr: "title"},
		{name: "missing contact", mutate: func(d *DonationJSON) { d.Contact = "" }, wantErr: "contact"},
		{name: "relative image url", mutate: func(d *DonationJSON) { d.ImageURL = "/img.png" }, wantErr: "image_url"},
		{name: "https image url", mutate: func(d *DonationJSON) { d.ImageURL = "https://cdn.example.com/a.png" }},
		{name: "unknown status", mutate: func(d *DonationJSON) { d.Status = "gone" }, wantErr: "status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			if tc.mutate != nil {
				tc.mutate(&d)
			}
			err := d.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}
