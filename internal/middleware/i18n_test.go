package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type assertError string

func (e assertError) Error() string { return string(e) }

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "FR")
			},
			country: "US",
			want:    "fr",
		},
		{
			name: "accept-language used",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-US,en;q=0.9")
			},
			want: "en",
		},
		{
			name: "accept-language regional variant",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "pt-AO,en;q=0.8")
			},
			want: "pt",
		},
		{
			name: "unsupported x-locale falls through to accept-language",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "ja")
				r.Header.Set("Accept-Language", "fr-CM")
			},
			want: "fr",
		},
		{
			name:    "country language",
			country: "FR",
			want:    "fr",
		},
		{
			name:    "country in portuguese region",
			country: "BR",
			want:    "pt",
		},
		{
			name:     "configured fallback",
			fallback: "fr",
			want:     "fr",
		},
		{
			name: "default to en",
			want: "en",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			assert.Equal(t, tc.want, detectLocale(req, tc.fallback, tc.country))
		})
	}
}

func TestResolveCountry(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		resolver CountryLookup
		want     string
	}{
		{
			name: "header precedence",
			setup: func(r *http.Request) {
				r.Header.Set("X-Country-Code", "ng")
				r.Header.Set("CF-IPCountry", "gh")
			},
			want: "NG",
		},
		{
			name: "unknown cloudflare country ignored",
			setup: func(r *http.Request) {
				r.Header.Set("CF-IPCountry", "XX")
				r.Header.Set("Accept-Language", "fr-SN")
			},
			want: "SN",
		},
		{
			name: "locale region fallback",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "en-KE")
			},
			want: "KE",
		},
		{
			name: "accept-language region",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "en-GB,en;q=0.9")
			},
			want: "GB",
		},
		{
			name: "bare language has no region",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "fr;q=0.8")
			},
			want: "",
		},
		{
			name: "resolver fallback",
			resolver: func(ip string) (string, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return "gh", nil
			},
			want: "GH",
		},
		{
			name: "resolver error returns empty",
			resolver: func(ip string) (string, error) {
				return "", assertError("boom")
			},
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.setup != nil {
				tc.setup(req)
			}
			assert.Equal(t, tc.want, ResolveCountry(req, tc.resolver))
		})
	}
}

func TestI18NSetsContext(t *testing.T) {
	var gotLocale, gotCountry string
	h := I18N("en", nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/currencies", nil)
	req.Header.Set("Accept-Language", "fr-SN")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "fr", gotLocale)
	assert.Equal(t, "SN", gotCountry)
	assert.Equal(t, "fr", rr.Header().Get("Content-Language"))
}

func TestLocaleFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "en", LocaleFromContext(ctx))
	ctx = context.WithValue(ctx, LocaleKey, "fr")
	assert.Equal(t, "fr", LocaleFromContext(ctx))
}
