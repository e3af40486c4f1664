package accounts

import (
	"crypto/rand"
	"math/big"

	"donationhub/internal/domain"
)

var alphabetSize = big.NewInt(int64(len(domain.ConnectionCodeAlphabet)))

// GenerateConnectionCode draws a fresh code from crypto/rand. Uniqueness is
// enforced by the store, not here.
func GenerateConnectionCode() (string, error) {
	buf := make([]byte, domain.ConnectionCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		buf[i] = domain.ConnectionCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
