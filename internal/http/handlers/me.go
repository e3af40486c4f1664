package handlers

import (
	"net/http"
)

type renameRequest struct {
	Name string `json:"name"`
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	u, err := a.Accounts.Profile(r.Context(), principal(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(u, true))
}

func (a *App) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	u, err := a.Accounts.Rename(r.Context(), principal(r), req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toUserDTO(u, true))
}

// DeleteMe removes the caller's account and every listing it owns.
func (a *App) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := a.Accounts.DeleteAccount(r.Context(), principal(r)); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) MyDonations(w http.ResponseWriter, r *http.Request) {
	actor := principal(r)
	items, err := a.Listings.ListMine(r.Context(), actor)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(items, actor.UserID)})
}
