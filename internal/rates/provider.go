// Package rates serves USD-relative exchange rates for price display. Live
// data comes from exchangerate-api.com at most once per refresh window; a
// static table covers outages and missing keys.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	BaseCurrency   = "USD"
	DefaultTTL     = 24 * time.Hour
	DefaultBaseURL = "https://v6.exchangerate-api.com/v6"
	// FailureBackoff is how long Rates serves the fallback table after a
	// failed fetch before trying the provider again.
	FailureBackoff = 5 * time.Minute

	SourceLive     = "live"
	SourceShared   = "shared"
	SourceFallback = "fallback"
)

// Rates maps currency codes to their value per one USD.
type Rates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Names     map[string]string  `json:"names"`
	Source    string             `json:"source"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// KeySource looks up the provider API key at request time.
type KeySource interface {
	ExchangeRateAPIKey(ctx context.Context) (string, error)
}

// SharedCache stores fetched rates for other processes.
type SharedCache interface {
	Load(ctx context.Context) (*Rates, error)
	Save(ctx context.Context, r Rates, ttl time.Duration) error
}

type Options struct {
	BaseURL string
	APIKey  string
	Keys    KeySource
	Shared  SharedCache
	TTL     time.Duration
	Client  *http.Client
}

type Provider struct {
	opts   Options
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	cached  *Rates
	retryAt time.Time
}

func NewProvider(opts Options, logger zerolog.Logger) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{opts: opts, now: time.Now, logger: logger.With().Str("component", "rates").Logger()}
}

// Rates returns the freshest rates available without ever failing: memory,
// then the shared cache, then the provider, then a stale copy, then the
// fallback table.
func (p *Provider) Rates(ctx context.Context) Rates {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil && p.fresh(p.cached) {
		return *p.cached
	}
	if p.opts.Shared != nil {
		shared, err := p.opts.Shared.Load(ctx)
		if err != nil {
			p.logger.Warn().Err(err).Msg("shared rates cache unavailable")
		} else if shared != nil && p.fresh(shared) {
			shared.Source = SourceShared
			p.cached = shared
			return *shared
		}
	}
	if p.now().Before(p.retryAt) {
		return p.degraded()
	}
	live, err := p.fetch(ctx)
	if err != nil {
		p.retryAt = p.now().Add(FailureBackoff)
		p.logger.Warn().Err(err).Time("retry_at", p.retryAt).Bool("stale", p.cached != nil).Msg("exchange rate refresh failed")
		return p.degraded()
	}
	p.store(ctx, live)
	return live
}

// degraded serves the last live table, however old, before the fallback.
// FetchedAt tells callers its age.
func (p *Provider) degraded() Rates {
	if p.cached != nil {
		return *p.cached
	}
	return Fallback()
}

// Refresh fetches live rates regardless of cache age and publishes them to
// the shared cache.
func (p *Provider) Refresh(ctx context.Context) (Rates, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	live, err := p.fetch(ctx)
	if err != nil {
		return Rates{}, err
	}
	p.store(ctx, live)
	return live, nil
}

func (p *Provider) store(ctx context.Context, r Rates) {
	p.cached = &r
	p.retryAt = time.Time{}
	if p.opts.Shared == nil {
		return
	}
	if err := p.opts.Shared.Save(ctx, r, p.opts.TTL); err != nil {
		p.logger.Warn().Err(err).Msg("save shared rates failed")
	}
}

func (p *Provider) fresh(r *Rates) bool {
	return p.now().Sub(r.FetchedAt) < p.opts.TTL
}

// ErrNoAPIKey means no key is configured in the environment or the store.
var ErrNoAPIKey = errors.New("exchange rate api key not configured")

type apiResponse struct {
	Result          string             `json:"result"`
	ErrorType       string             `json:"error-type"`
	ConversionRates map[string]float64 `json:"conversion_rates"`
}

func (p *Provider) fetch(ctx context.Context) (Rates, error) {
	key, err := p.apiKey(ctx)
	if err != nil {
		return Rates{}, err
	}
	endpoint := strings.TrimRight(p.opts.BaseURL, "/") + "/" + url.PathEscape(key) + "/latest/" + BaseCurrency
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Rates{}, err
	}
	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return Rates{}, fmt.Errorf("rates: request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Rates{}, fmt.Errorf("rates: unexpected status %d", resp.StatusCode)
	}
	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Rates{}, fmt.Errorf("rates: decode: %w", err)
	}
	if body.Result != "success" {
		return Rates{}, fmt.Errorf("rates: provider error %q", body.ErrorType)
	}

	out := Rates{
		Base:      BaseCurrency,
		Rates:     make(map[string]float64),
		Names:     make(map[string]string),
		Source:    SourceLive,
		FetchedAt: p.now().UTC(),
	}
	for code, rate := range body.ConversionRates {
		name, ok := currencyNames[code]
		if !ok {
			continue
		}
		out.Rates[code] = rate
		out.Names[code] = name
	}
	if len(out.Rates) == 0 {
		return Rates{}, errors.New("rates: provider returned no known currencies")
	}
	return out, nil
}

func (p *Provider) apiKey(ctx context.Context) (string, error) {
	if key := strings.TrimSpace(p.opts.APIKey); key != "" {
		return key, nil
	}
	if p.opts.Keys != nil {
		key, err := p.opts.Keys.ExchangeRateAPIKey(ctx)
		if err != nil {
			return "", fmt.Errorf("rates: load api key: %w", err)
		}
		if key != "" {
			return key, nil
		}
	}
	return "", ErrNoAPIKey
}
