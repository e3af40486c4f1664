package httpapi

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"donationhub/internal/http/handlers"
	"donationhub/internal/middleware"
)

type Options struct {
	Tokens        middleware.TokenParser
	Admins        middleware.AdminChecker
	CORSOrigins   []string
	DefaultLocale string
	CountryLookup middleware.CountryLookup
	// LoginPerMinute bounds auth attempts per client IP. Code login gets a
	// third of it, and its failures share one budget of LoginPerMinute.
	LoginPerMinute int
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	// StaticDir is served under /static when uploads go to the filesystem.
	StaticDir string
	Logger    zerolog.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP(opts.TrustedProxies),
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.CORSOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	loginLimit := opts.LoginPerMinute
	if loginLimit <= 0 {
		loginLimit = 30
	}
	codeLimit := max(loginLimit/3, 1)
	codeFailures := middleware.NewLimiter(loginLimit, time.Minute)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)

	r.Route("/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginLimit, time.Minute)).Post("/register", app.AuthRegister)
		r.With(middleware.RateLimit(loginLimit, time.Minute)).Post("/login", app.AuthLogin)
		r.With(
			middleware.RateLimit(codeLimit, time.Minute),
			middleware.LimitFailures(codeFailures, http.StatusUnauthorized),
		).Post("/login/code", app.AuthLoginCode)
		r.With(middleware.RateLimit(loginLimit, time.Minute)).Post("/login/id-token", app.AuthLoginIDToken)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(opts.Tokens))
		r.Get("/v1/donations", app.DonationsList)
		r.Get("/v1/donations/stream", app.DonationsStream)
		r.Get("/v1/donations/{id}", app.DonationsGet)
		r.Get("/v1/currencies", app.Currencies)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.Tokens))

		r.Get("/v1/me", app.Me)
		r.Patch("/v1/me", app.UpdateMe)
		r.Delete("/v1/me", app.DeleteMe)
		r.Get("/v1/me/donations", app.MyDonations)

		r.Post("/v1/donations", app.DonationsCreate)
		r.Patch("/v1/donations/{id}/status", app.DonationsSetStatus)
		r.Delete("/v1/donations/{id}", app.DonationsDelete)
		r.Post("/v1/donations/{id}/contact", app.DonationsContact)

		r.Post("/v1/uploads/images", app.UploadImage)

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(opts.Admins))
			r.Get("/stats", app.AdminStats)
			r.Get("/users", app.AdminUsers)
			r.Patch("/users/{id}/plan", app.AdminSetPlan)
			r.Patch("/users/{id}/role", app.AdminSetRole)
			r.Delete("/users/{id}", app.AdminDeleteUser)
			r.Post("/donations/{id}/featured", app.AdminToggleFeatured)
			r.Delete("/donations/{id}", app.AdminDeleteDonation)
		})
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
