package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAuthRequired    = errors.New("authentication required")
	ErrDenied          = errors.New("credential denied")
	ErrForbidden       = errors.New("forbidden")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrUpgradeRequired = errors.New("upgrade required")
	ErrConflict        = errors.New("conflict")
	ErrTransient       = errors.New("store unavailable")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmailTaken      = errors.New("email already registered")
	ErrCodeTaken       = errors.New("connection code already allocated")
	ErrUnsupportedPlan = errors.New("unsupported plan")
)

// Retryable reports whether err marks a failure that left no mutation behind
// and may be retried as-is.
func Retryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrTransient)
}
