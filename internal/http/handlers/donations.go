package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"donationhub/internal/domain"
	"donationhub/internal/domain/jsoncfg"
	"donationhub/internal/quota"
)

type statusRequest struct {
	Status string `json:"status"`
}

type contactResponse struct {
	Outcome      string `json:"outcome"`
	Contact      string `json:"contact,omitempty"`
	ContactCount int    `json:"contact_count"`
	Remaining    int    `json:"remaining"`
}

func (a *App) DonationsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ListFilter{Query: q.Get("q")}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "featured must be a boolean")
			return
		}
		filter.FeaturedOnly = featured
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	items, err := a.Listings.Feed(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(items, principal(r).UserID)})
}

func (a *App) DonationsGet(w http.ResponseWriter, r *http.Request) {
	d, err := a.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(d, principal(r).UserID))
}

func (a *App) DonationsCreate(w http.ResponseWriter, r *http.Request) {
	var req jsoncfg.DonationJSON
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	actor := principal(r)
	d, err := a.Listings.Create(r.Context(), actor, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toDonationDTO(d, actor.UserID))
}

// DonationsSetStatus answers a rejected update with the stored record so
// the client can drop its optimistic state.
func (a *App) DonationsSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	actor := principal(r)
	status := domain.DonationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	d, err := a.Listings.SetStatus(r.Context(), actor, chi.URLParam(r, "id"), status)
	if err != nil {
		if d != nil {
			code, kind, message := classify(err)
			a.json(w, code, map[string]any{
				"error":     kind,
				"message":   message,
				"retryable": domain.Retryable(err),
				"current":   toDonationDTO(d, actor.UserID),
			})
			return
		}
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(d, actor.UserID))
}

func (a *App) DonationsDelete(w http.ResponseWriter, r *http.Request) {
	if err := a.Listings.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DonationsContact reveals the donor contact through the quota engine.
func (a *App) DonationsContact(w http.ResponseWriter, r *http.Request) {
	decision, err := a.Quota.AttemptContact(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := contactResponse{
		Outcome:      string(decision.Outcome),
		Contact:      decision.Contact,
		ContactCount: decision.ContactCount,
		Remaining:    decision.Remaining,
	}
	if decision.Outcome == quota.OutcomeUpgradeRequired {
		a.json(w, http.StatusPaymentRequired, resp)
		return
	}
	a.json(w, http.StatusOK, resp)
}
