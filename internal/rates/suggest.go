package rates

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// SuggestCurrency picks the display currency for an ISO 3166 country code:
// the country's current tender when available is returned, USD otherwise.
func SuggestCurrency(country string, available map[string]float64) string {
	country = strings.TrimSpace(country)
	if country == "" {
		return BaseCurrency
	}
	region, err := language.ParseRegion(country)
	if err != nil {
		return BaseCurrency
	}
	unit, ok := currency.FromRegion(region)
	if !ok {
		return BaseCurrency
	}
	code := unit.String()
	if _, ok := available[code]; !ok {
		return BaseCurrency
	}
	return code
}
