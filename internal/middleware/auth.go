package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"donationhub/internal/domain"
	"donationhub/internal/identity"
)

// TokenParser turns a bearer token into a principal.
type TokenParser interface {
	Parse(raw string) (identity.Principal, error)
}

// AdminChecker reports whether a principal may use admin routes.
type AdminChecker interface {
	IsAdmin(ctx context.Context, actor identity.Principal) (bool, error)
}

type principalKey struct{}

// AuthJWT rejects requests without a valid bearer token.
func AuthJWT(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				abort(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			p, err := tokens.Parse(raw)
			if err != nil {
				abort(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// OptionalAuth attaches the principal when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				if p, err := tokens.Parse(raw); err == nil {
					r = r.WithContext(ContextWithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin must run after AuthJWT.
func RequireAdmin(admins AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p.Anonymous() {
				abort(w, http.StatusUnauthorized, "unauthorized", "missing user context")
				return
			}
			ok, err := admins.IsAdmin(r.Context(), p)
			switch {
			case errors.Is(err, domain.ErrTransient):
				abort(w, http.StatusServiceUnavailable, "unavailable", "try again")
				return
			case errors.Is(err, domain.ErrAuthRequired):
				abort(w, http.StatusUnauthorized, "unauthorized", "unknown user")
				return
			case err != nil:
				abort(w, http.StatusInternalServerError, "internal", "admin check failed")
				return
			case !ok:
				abort(w, http.StatusForbidden, "forbidden", "admin only")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func PrincipalFromContext(ctx context.Context) identity.Principal {
	if p, ok := ctx.Value(principalKey{}).(identity.Principal); ok {
		return p
	}
	return identity.Principal{}
}

func ContextWithPrincipal(ctx context.Context, p identity.Principal) context.Context {
	if p.Anonymous() {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, p)
}

func UserIDFromContext(ctx context.Context) string {
	return PrincipalFromContext(ctx).UserID
}
