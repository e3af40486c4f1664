package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateServer(t *testing.T, hits *atomic.Int32, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/test-key/latest/USD", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"result":"success","conversion_rates":{"USD":1,"XOF":600.5,"EUR":0.9,"ZZZ":42}}`

func TestRates_LiveThenCached(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, http.StatusOK, okBody)
	p := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())

	r := p.Rates(context.Background())
	assert.Equal(t, SourceLive, r.Source)
	assert.Equal(t, 600.5, r.Rates["XOF"])
	assert.Equal(t, "CFA Franc BCEAO", r.Names["XOF"])
	assert.NotContains(t, r.Rates, "ZZZ")

	_ = p.Rates(context.Background())
	assert.Equal(t, int32(1), hits.Load())

	p.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	_ = p.Rates(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestRates_FallbackWithoutKey(t *testing.T) {
	r := NewProvider(Options{}, zerolog.Nop()).Rates(context.Background())
	assert.Equal(t, SourceFallback, r.Source)
	assert.Equal(t, 1.0, r.Rates["USD"])
	assert.Equal(t, 605.0, r.Rates["XOF"])
	assert.Equal(t, "Euro", r.Names["EUR"])
}

func TestRates_FallbackOnProviderError(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusInternalServerError, ""},
		{"provider error", http.StatusOK, `{"result":"error","error-type":"invalid-key"}`},
		{"garbage", http.StatusOK, `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := rateServer(t, &hits, tc.status, tc.body)
			p := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())
			r := p.Rates(context.Background())
			assert.Equal(t, SourceFallback, r.Source)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestRates_BacksOffAfterFailure(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, http.StatusBadGateway, "")
	p := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	assert.Equal(t, SourceFallback, p.Rates(context.Background()).Source)
	assert.Equal(t, SourceFallback, p.Rates(context.Background()).Source)
	assert.Equal(t, int32(1), hits.Load(), "no refetch inside the backoff window")

	now = now.Add(FailureBackoff + time.Second)
	_ = p.Rates(context.Background())
	assert.Equal(t, int32(2), hits.Load())
}

func TestRates_ServesStaleTableWhenRefreshFails(t *testing.T) {
	var hits atomic.Int32
	var failing atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if failing.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(srv.Close)
	p := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key"}, zerolog.Nop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return now }

	first := p.Rates(context.Background())
	require.Equal(t, SourceLive, first.Source)

	failing.Store(true)
	now = now.Add(DefaultTTL + time.Hour)
	stale := p.Rates(context.Background())
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, SourceLive, stale.Source)
	assert.Equal(t, 600.5, stale.Rates["XOF"])
	assert.Equal(t, first.FetchedAt, stale.FetchedAt)

	again := p.Rates(context.Background())
	assert.Equal(t, 600.5, again.Rates["XOF"])
	assert.Equal(t, int32(2), hits.Load(), "no refetch inside the backoff window")
}

type staticKeys struct {
	key string
	err error
}

func (s staticKeys) ExchangeRateAPIKey(context.Context) (string, error) { return s.key, s.err }

func TestRates_KeyFromStore(t *testing.T) {
	var hits atomic.Int32
	srv := rateServer(t, &hits, http.StatusOK, okBody)
	p := NewProvider(Options{BaseURL: srv.URL, Keys: staticKeys{key: "test-key"}}, zerolog.Nop())
	assert.Equal(t, SourceLive, p.Rates(context.Background()).Source)

	p = NewProvider(Options{BaseURL: srv.URL, Keys: staticKeys{err: errors.New("db down")}}, zerolog.Nop())
	assert.Equal(t, SourceFallback, p.Rates(context.Background()).Source)
}

func TestRefresh_SharesThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var hits atomic.Int32
	srv := rateServer(t, &hits, http.StatusOK, okBody)

	worker := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key", Shared: NewRedisCache(client, "")}, zerolog.Nop())
	_, err = worker.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, mr.Exists(DefaultRedisKey))
	assert.Equal(t, 24*time.Hour, mr.TTL(DefaultRedisKey))

	api := NewProvider(Options{BaseURL: srv.URL, APIKey: "test-key", Shared: NewRedisCache(client, "")}, zerolog.Nop())
	r := api.Rates(context.Background())
	assert.Equal(t, SourceShared, r.Source)
	assert.Equal(t, 600.5, r.Rates["XOF"])
	assert.Equal(t, int32(1), hits.Load())
}

func TestRedisCache_Empty(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	got, err := NewRedisCache(client, "k").Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSuggestCurrency(t *testing.T) {
	available := Fallback().Rates
	assert.Equal(t, "XOF", SuggestCurrency("SN", available))
	assert.Equal(t, "NGN", SuggestCurrency("ng", available))
	assert.Equal(t, "EUR", SuggestCurrency("FR", available))
	assert.Equal(t, "USD", SuggestCurrency("JP", available))
	assert.Equal(t, "USD", SuggestCurrency("", available))
	assert.Equal(t, "USD", SuggestCurrency("not-a-region", available))
}
