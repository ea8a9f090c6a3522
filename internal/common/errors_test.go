package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("whois lookup: %w", ErrOracleUnavailable)
	assert.True(t, errors.Is(wrapped, ErrOracleUnavailable))
	assert.False(t, errors.Is(wrapped, ErrUnexpectedStatus))
}

func TestSentinels_Distinct(t *testing.T) {
	all := []error{ErrNotFound, ErrInvalidURL, ErrInvalidTier, ErrOracleUnavailable,
		ErrUnexpectedStatus, ErrInvalidDate, ErrFeatureNotAllowed, ErrQuotaExceeded,
		ErrInvalidRequest, ErrVerdictNotFinal}
	seen := map[string]bool{}
	for _, e := range all {
		assert.False(t, seen[e.Error()], "duplicate message %q", e.Error())
		seen[e.Error()] = true
	}
}
