package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"donationhub/internal/domain"
)

type planRequest struct {
	Plan string `json:"plan"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func (a *App) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.Accounts.ListUsers(r.Context(), principal(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]userDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i], false))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) AdminSetPlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	plan := domain.UserPlan(strings.ToLower(strings.TrimSpace(req.Plan)))
	u, err := a.Accounts.SetPlan(r.Context(), principal(r), chi.URLParam(r, "id"), plan)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(u, false))
}

func (a *App) AdminSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	role := domain.UserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	u, err := a.Accounts.SetRole(r.Context(), principal(r), chi.URLParam(r, "id"), role)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(u, false))
}

func (a *App) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := a.Accounts.DeleteUser(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) AdminToggleFeatured(w http.ResponseWriter, r *http.Request) {
	d, err := a.Listings.ToggleFeatured(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(d, ""))
}

func (a *App) AdminDeleteDonation(w http.ResponseWriter, r *http.Request) {
	if err := a.Listings.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
