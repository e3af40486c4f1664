package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminEndpoints(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Root", "admin@example.com")
	user := env.register(t, "Kofi", "kofi@example.com")
	d := env.donate(t, user, "Desk")

	rr := httptest.NewRecorder()
	env.app.AdminUsers(rr, request(http.MethodGet, "/v1/admin/users", nil, user, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminUsers(rr, request(http.MethodGet, "/v1/admin/users", nil, admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	users := decodeBody[struct {
		Items []userDTO `json:"items"`
	}](t, rr).Items
	require.Len(t, users, 2)
	for _, u := range users {
		assert.Empty(t, u.ConnectionCode, "codes are not listed to admins")
	}

	params := map[string]string{"id": user.UserID}
	rr = httptest.NewRecorder()
	env.app.AdminSetPlan(rr, request(http.MethodPatch, "/", planRequest{Plan: "Premium"}, admin, params))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "premium", decodeBody[userDTO](t, rr).Plan)

	rr = httptest.NewRecorder()
	env.app.AdminSetPlan(rr, request(http.MethodPatch, "/", planRequest{Plan: "gold"}, admin, params))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminSetRole(rr, request(http.MethodPatch, "/", roleRequest{Role: "admin"}, admin, params))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "admin", decodeBody[userDTO](t, rr).Role)

	dparams := map[string]string{"id": d.ID}
	rr = httptest.NewRecorder()
	env.app.AdminToggleFeatured(rr, request(http.MethodPost, "/", nil, admin, dparams))
	require.Equal(t, http.StatusOK, rr.Code)
	featured := decodeBody[donationDTO](t, rr)
	assert.True(t, featured.IsFeatured)
	assert.Empty(t, featured.Contact)

	rr = httptest.NewRecorder()
	env.app.AdminDeleteDonation(rr, request(http.MethodDelete, "/", nil, admin, dparams))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminDeleteUser(rr, request(http.MethodDelete, "/", nil, admin, params))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminDeleteUser(rr, request(http.MethodDelete, "/", nil, admin, params))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "Root", "admin@example.com")
	user := env.register(t, "Kofi", "kofi@example.com")
	env.donate(t, user, "Desk")
	env.donate(t, user, "Lamp")

	rr := httptest.NewRecorder()
	env.app.AdminStats(rr, request(http.MethodGet, "/v1/admin/stats", nil, user, nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminStats(rr, request(http.MethodGet, "/v1/admin/stats?hours=48", nil, admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeBody[statsResponse](t, rr)
	assert.Equal(t, 2, got.Users)
	assert.Equal(t, 2, got.Donations)
	assert.Equal(t, 2, got.ByStatus["available"])
	assert.Equal(t, 48, got.WindowHours)
	assert.Equal(t, 2, got.DonationsSince)

	rr = httptest.NewRecorder()
	env.app.AdminStats(rr, request(http.MethodGet, "/v1/admin/stats?hours=-1", nil, admin, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	env.app.AdminStats(rr, request(http.MethodGet, "/v1/admin/stats?hours=100000", nil, admin, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, maxStatsWindow, decodeBody[statsResponse](t, rr).WindowHours)
}
