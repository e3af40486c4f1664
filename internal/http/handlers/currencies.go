package handlers

import (
	"net/http"
	"sort"
	"time"

	"donationhub/internal/middleware"
	"donationhub/internal/rates"
)

type currencyDTO struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Rate float64 `json:"rate"`
}

type currenciesResponse struct {
	Base      string        `json:"base"`
	Suggested string        `json:"suggested"`
	Country   string        `json:"country,omitempty"`
	Source    string        `json:"source"`
	FetchedAt time.Time     `json:"fetched_at"`
	Items     []currencyDTO `json:"items"`
}

// Currencies lists display currencies with USD rates and a suggestion for
// the caller's country.
func (a *App) Currencies(w http.ResponseWriter, r *http.Request) {
	table := a.Rates.Rates(r.Context())
	country := middleware.CountryFromContext(r.Context())

	items := make([]currencyDTO, 0, len(table.Rates))
	for code, rate := range table.Rates {
		name := table.Names[code]
		if name == "" {
			name = code
		}
		items = append(items, currencyDTO{Code: code, Name: name, Rate: rate})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Code < items[j].Code })

	w.Header().Set("Cache-Control", "public, max-age=3600")
	a.json(w, http.StatusOK, currenciesResponse{
		Base:      table.Base,
		Suggested: rates.SuggestCurrency(country, table.Rates),
		Country:   country,
		Source:    table.Source,
		FetchedAt: table.FetchedAt,
		Items:     items,
	})
}
