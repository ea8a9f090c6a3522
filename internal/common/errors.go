// Package common defines sentinel errors and shared constants used across
// the phishguard pipeline. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// repository specific errors
	ErrNotFound = errors.New("not found")

	// input errors
	ErrInvalidURL     = errors.New("invalid url")
	ErrInvalidTier    = errors.New("invalid tier")
	ErrInvalidRequest = errors.New("invalid request")

	// storage errors
	ErrVerdictNotFinal = errors.New("verdict is not final")

	// oracle errors
	ErrOracleUnavailable = errors.New("oracle unavailable")
	ErrUnexpectedStatus  = errors.New("unexpected status")
	ErrInvalidDate       = errors.New("invalid date")

	// entitlement / quota errors
	ErrFeatureNotAllowed = errors.New("feature not allowed for plan")
	ErrQuotaExceeded     = errors.New("monthly scan quota exceeded")
)
