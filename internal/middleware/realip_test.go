package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted bool
		remote  string
		xff     string
		realIP  string
		want    string
	}{
		{name: "untrusted peer keeps its address", trusted: true, remote: "203.0.113.9:4000", xff: "198.51.100.1", want: "203.0.113.9"},
		{name: "no trusted proxies ignores headers", remote: "10.0.0.5:4000", xff: "198.51.100.1", want: "10.0.0.5"},
		{name: "trusted peer forwards client", trusted: true, remote: "10.0.0.5:4000", xff: "198.51.100.1", want: "198.51.100.1"},
		{name: "rightmost untrusted hop wins", trusted: true, remote: "10.0.0.5:4000", xff: "192.0.2.66, 198.51.100.1, 10.0.0.7", want: "198.51.100.1"},
		{name: "all hops trusted uses leftmost", trusted: true, remote: "10.0.0.5:4000", xff: "10.1.1.1, 10.0.0.7", want: "10.1.1.1"},
		{name: "garbage chain is ignored", trusted: true, remote: "10.0.0.5:4000", xff: "198.51.100.1, junk", want: "10.0.0.5"},
		{name: "x-real-ip from trusted peer", trusted: true, remote: "10.0.0.5:4000", realIP: "198.51.100.2", want: "198.51.100.2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			proxies := trusted
			if !tc.trusted {
				proxies = nil
			}
			var seen string
			h := RealIP(proxies)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.realIP != "" {
				req.Header.Set("X-Real-IP", tc.realIP)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tc.want, seen)
		})
	}
}
