// Package policy decides which capabilities a subscription tier may use.
package policy

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/phishguard/internal/common"
)

type Tier int

const (
	TierFree    Tier = 0
	TierMonthly Tier = 1
	TierPlus    Tier = 2
)

// LowestTier is the tier subject to the monthly quota.
const LowestTier = TierFree

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierMonthly:
		return "monthly"
	case TierPlus:
		return "plus"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

func (t Tier) IsLowest() bool { return t == LowestTier }

// ParseTier accepts a tier name or its numeric code.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "free", "0":
		return TierFree, nil
	case "monthly", "1":
		return TierMonthly, nil
	case "plus", "2":
		return TierPlus, nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrInvalidTier, s)
}

type Feature string

const (
	FeatureDomainCheck        Feature = "domainCheck"
	FeatureSecurityChecks     Feature = "performSecurityChecks"
	FeatureHTMLChecks         Feature = "performHTMLChecks"
	FeaturePhishingDB         Feature = "checkPhishingSite"
	FeatureScanHistory        Feature = "scanHistory"
	FeatureTwitterFeedScan    Feature = "twitterFeedScan"
	FeatureEmailScan          Feature = "emailScan"
	FeatureTwitterProfileScan Feature = "twitterProfileScan"
	FeatureTrustScoreUI       Feature = "trustScoreUI"
)

// access is the product table. The monthly tier has no entries.
var access = map[Feature][]Tier{
	FeatureDomainCheck:        {TierFree, TierPlus},
	FeatureSecurityChecks:     {TierFree, TierPlus},
	FeatureHTMLChecks:         {TierFree, TierPlus},
	FeaturePhishingDB:         {TierPlus},
	FeatureScanHistory:        {TierFree, TierPlus},
	FeatureTwitterFeedScan:    {TierPlus},
	FeatureEmailScan:          {TierPlus},
	FeatureTwitterProfileScan: {TierPlus},
	FeatureTrustScoreUI:       {TierPlus},
}

// Allowed reports whether tier may use feature. Unknown features are denied.
func Allowed(tier Tier, feature Feature) bool {
	return slices.Contains(access[feature], tier)
}

// Features lists what tier may use, in a stable order.
func Features(tier Tier) []Feature {
	var out []Feature
	for f, tiers := range access {
		if slices.Contains(tiers, tier) {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// Entitlements supplies the tier of the current session.
type Entitlements interface {
	Tier() Tier
}

// Static is a fixed tier, typically read from configuration.
type Static Tier

func (s Static) Tier() Tier { return Tier(s) }
