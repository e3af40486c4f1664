package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

const (
	ProviderExchangeRate = "exchangerate"
)

// Store reads and writes third-party API tokens kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// ExchangeRateAPIKey returns the stored exchange-rate provider key, or "" when unset.
func (s *Store) ExchangeRateAPIKey(ctx context.Context) (string, error) {
	return s.Token(ctx, ProviderExchangeRate)
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetExchangeRateAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("exchange rate api key is required")
	}
	return s.upsert(ctx, ProviderExchangeRate, key, map[string]any{"source": "cli"})
}

// ClearExchangeRateAPIKey removes the stored key so the provider falls back
// to EXCHANGERATE_API_KEY or the static table. It reports whether a key existed.
func (s *Store) ClearExchangeRateAPIKey(ctx context.Context) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteIntegrationToken, ProviderExchangeRate)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
