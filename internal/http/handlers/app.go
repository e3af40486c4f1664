package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/accounts"
	"donationhub/internal/domain"
	"donationhub/internal/feed"
	"donationhub/internal/identity"
	"donationhub/internal/listings"
	"donationhub/internal/middleware"
	"donationhub/internal/quota"
	"donationhub/internal/rates"
	"donationhub/internal/storage"
)

// RatesSource serves the current exchange-rate table.
type RatesSource interface {
	Rates(ctx context.Context) rates.Rates
}

type App struct {
	Accounts *accounts.Service
	Listings *listings.Service
	Quota    *quota.Engine
	Rates    RatesSource
	Files    storage.Store
	Hub      *feed.Hub
	Stats    domain.StatsRepository
	Logger   zerolog.Logger

	// Ping checks the backing store for /v1/healthz. Nil means always ready.
	Ping           func(ctx context.Context) error
	MaxUploadBytes int64
	StreamPing     time.Duration

	now func() time.Time
}

const maxJSONBody = 64 << 10

func (a *App) clock() time.Time {
	if a.now != nil {
		return a.now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, errorResponse{Error: kind, Message: message})
}

// fail writes the HTTP shape of a domain error.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, kind, message := classify(err)
	ev := a.Logger.Debug()
	if status >= http.StatusInternalServerError {
		ev = a.Logger.Error()
	}
	ev.Err(err).
		Str("request_id", middleware.RequestIDFromContext(r.Context())).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("request failed")
	if domain.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	a.json(w, status, errorResponse{Error: kind, Message: message, Retryable: domain.Retryable(err)})
}

func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, "unauthorized", "authentication required"
	case errors.Is(err, domain.ErrDenied):
		return http.StatusUnauthorized, "denied", "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", "not allowed"
	case errors.Is(err, domain.ErrUpgradeRequired), errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusPaymentRequired, "upgrade_required", "free plan limit reached"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email_taken", "email already registered"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict", "concurrent update, retry"
	case errors.Is(err, domain.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable", "temporarily unavailable, retry"
	case errors.Is(err, domain.ErrUnsupportedPlan):
		return http.StatusBadRequest, "bad_request", "unsupported plan"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request", err.Error()
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrInvalidInput)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("%w: trailing data", domain.ErrInvalidInput)
	}
	return nil
}

func principal(r *http.Request) identity.Principal {
	return middleware.PrincipalFromContext(r.Context())
}
