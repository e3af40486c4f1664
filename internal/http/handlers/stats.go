package handlers

import (
	"net/http"
	"strconv"
	"time"
)

const (
	defaultStatsWindow = 24
	maxStatsWindow     = 24 * 30
)

type statsResponse struct {
	Users          int            `json:"users"`
	PremiumUsers   int            `json:"premium_users"`
	Admins         int            `json:"admins"`
	ContactsUsed   int            `json:"contacts_used"`
	Donations      int            `json:"donations"`
	Featured       int            `json:"featured"`
	ByStatus       map[string]int `json:"by_status"`
	WindowHours    int            `json:"window_hours"`
	DonationsSince int            `json:"donations_in_window"`
}

// AdminStats summarises the marketplace. ?hours sets the window for recent
// listings.
func (a *App) AdminStats(w http.ResponseWriter, r *http.Request) {
	if err := a.Accounts.RequireAdmin(r.Context(), principal(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	if a.Stats == nil {
		a.error(w, http.StatusServiceUnavailable, "unavailable", "stats are not configured")
		return
	}
	hours := defaultStatsWindow
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "hours must be a positive integer")
			return
		}
		hours = min(n, maxStatsWindow)
	}
	s, err := a.Stats.Summary(r.Context(), a.clock().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	byStatus := make(map[string]int, len(s.ByStatus))
	for status, n := range s.ByStatus {
		byStatus[string(status)] = n
	}
	a.json(w, http.StatusOK, statsResponse{
		Users:          s.Users,
		PremiumUsers:   s.PremiumUsers,
		Admins:         s.Admins,
		ContactsUsed:   s.ContactsUsed,
		Donations:      s.Donations,
		Featured:       s.Featured,
		ByStatus:       byStatus,
		WindowHours:    hours,
		DonationsSince: s.DonationsSince,
	})
}
