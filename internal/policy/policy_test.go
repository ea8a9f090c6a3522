package policy

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed_Table(t *testing.T) {
	tests := []struct {
		tier    Tier
		feature Feature
		want    bool
	}{
		{TierFree, FeatureSecurityChecks, true},
		{TierFree, FeatureHTMLChecks, true},
		{TierFree, FeaturePhishingDB, false},
		{TierFree, FeatureEmailScan, false},
		{TierPlus, FeaturePhishingDB, true},
		{TierPlus, FeatureTwitterFeedScan, true},
		{TierPlus, FeatureDomainCheck, true},
		{TierMonthly, FeatureSecurityChecks, false},
		{TierMonthly, FeaturePhishingDB, false},
		{TierPlus, Feature("teleport"), false},
		{Tier(7), FeatureDomainCheck, false},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String()+"/"+string(tt.feature), func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.tier, tt.feature))
		})
	}
}

func TestParseTier(t *testing.T) {
	for in, want := range map[string]Tier{"free": TierFree, "0": TierFree, " Plus ": TierPlus, "2": TierPlus, "monthly": TierMonthly} {
		got, err := ParseTier(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTier("gold")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidTier))
}

func TestFeatures(t *testing.T) {
	assert.Empty(t, Features(TierMonthly))
	assert.Equal(t, []Feature{FeatureDomainCheck, FeatureHTMLChecks, FeatureSecurityChecks, FeatureScanHistory}, Features(TierFree))
	assert.Len(t, Features(TierPlus), 9)
}

func TestTier_Helpers(t *testing.T) {
	assert.True(t, TierFree.IsLowest())
	assert.False(t, TierPlus.IsLowest())
	assert.Equal(t, "tier(9)", Tier(9).String())
	assert.Equal(t, TierPlus, Static(TierPlus).Tier())
}
