package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/middleware"
	"donationhub/internal/rates"
)

func TestCurrencies(t *testing.T) {
	env := newTestEnv(t)
	env.app.Rates = staticRates{r: rates.Rates{
		Base:      "USD",
		Rates:     map[string]float64{"USD": 1, "XOF": 605, "NGN": 1400},
		Names:     map[string]string{"USD": "US Dollar", "XOF": "West African CFA franc"},
		Source:    rates.SourceLive,
		FetchedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	r := httptest.NewRequest(http.MethodGet, "/v1/currencies", nil)
	r = r.WithContext(context.WithValue(r.Context(), middleware.CountryKey, "SN"))
	rr := httptest.NewRecorder()
	env.app.Currencies(rr, r)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[currenciesResponse](t, rr)
	assert.Equal(t, "USD", resp.Base)
	assert.Equal(t, "XOF", resp.Suggested)
	assert.Equal(t, "SN", resp.Country)
	assert.Equal(t, rates.SourceLive, resp.Source)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "NGN", resp.Items[0].Code)
	assert.Equal(t, "NGN", resp.Items[0].Name, "unnamed codes fall back to the code")
	assert.Equal(t, "USD", resp.Items[1].Code)
}

func TestCurrencies_UnknownCountrySuggestsUSD(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.app.Currencies(rr, httptest.NewRequest(http.MethodGet, "/v1/currencies", nil))
	assert.Equal(t, "USD", decodeBody[currenciesResponse](t, rr).Suggested)
}
