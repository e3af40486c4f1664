package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"donationhub/internal/accounts"
	"donationhub/internal/adapter/memstore"
	"donationhub/internal/domain"
	"donationhub/internal/feed"
	"donationhub/internal/identity"
	"donationhub/internal/listings"
	"donationhub/internal/middleware"
	"donationhub/internal/quota"
	"donationhub/internal/rates"
	"donationhub/internal/storage"
)

type staticRates struct{ r rates.Rates }

func (s staticRates) Rates(context.Context) rates.Rates { return s.r }

type testEnv struct {
	app   *App
	store *memstore.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memstore.New()
	hasher := identity.Hasher{Cost: bcrypt.MinCost}
	tokens := identity.NewTokens("handler-secret", time.Hour)
	acc := accounts.NewService(store.Users(), identity.NewLocalVerifier(store.Users(), hasher), hasher, tokens,
		accounts.Config{AdminEmails: []string{"admin@example.com"}}, zerolog.Nop())
	hub := feed.NewHub(8, zerolog.Nop())
	t.Cleanup(hub.Close)
	engine := quota.NewEngine(store.Users(), store.Donations(), quota.Config{ContactLimit: 3, DonationLimit: 3}, zerolog.Nop())
	files, err := storage.NewFileStore(t.TempDir(), "http://files.test/static")
	require.NoError(t, err)
	return &testEnv{
		store: store,
		app: &App{
			Accounts: acc,
			Listings: listings.NewService(store.Donations(), acc, engine, hub, nil, zerolog.Nop()),
			Quota:    engine,
			Rates:    staticRates{r: rates.Fallback()},
			Files:    files,
			Hub:      hub,
			Stats:    store.Stats(),
			Logger:   zerolog.Nop(),
		},
	}
}

func (e *testEnv) register(t *testing.T, name, email string) identity.Principal {
	t.Helper()
	u, _, err := e.app.Accounts.Register(context.Background(), name, email, "correct horse battery")
	require.NoError(t, err)
	return identity.PrincipalFor(u, identity.SchemePassword)
}

func (e *testEnv) donate(t *testing.T, owner identity.Principal, title string) *domain.Donation {
	t.Helper()
	d, err := e.store.Donations().Create(context.Background(), owner.UserID, &domain.Donation{
		Title:   title,
		Contact: "+221 77 000 00 00",
		Status:  domain.DonationStatusAvailable,
	}, 0)
	require.NoError(t, err)
	return d
}

// request builds a request carrying actor and chi URL params.
func request(method, target string, body any, actor identity.Principal, params map[string]string) *http.Request {
	var rdr io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		rdr = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, rdr)
	ctx := middleware.ContextWithPrincipal(r.Context(), actor)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}
