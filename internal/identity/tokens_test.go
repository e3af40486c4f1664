package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/domain"
)

func TestTokens_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue(Principal{UserID: "u-1", Email: "ana@example.com", Plan: domain.UserPlanFree, Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	p, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, domain.UserPlanFree, p.Plan)
	assert.True(t, p.IsAdmin())
	assert.Equal(t, SchemeSession, p.Scheme)
}

func TestTokens_Rejects(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, err := tokens.Issue(Principal{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokens("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(raw)
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = tokens.Parse("not.a.token")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)

	_, err = tokens.Issue(Principal{})
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}
