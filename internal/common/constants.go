package common

import "time"

const (
	// MaxFreeUniqueScans is the number of distinct URLs the lowest tier may
	// scan per calendar month.
	MaxFreeUniqueScans = 200

	// CacheTTL bounds the life of safe-url and accepted-risk entries.
	CacheTTL = 24 * time.Hour

	// MaxRecentScans caps both recent and suspicious history lists.
	MaxRecentScans = 5

	// DefaultOracleTimeout applies to every remote oracle call.
	DefaultOracleTimeout = 4 * time.Second

	// UpgradeMessage is shown when the free quota is exhausted.
	UpgradeMessage = "You have reached your monthly scan limit. Upgrade your plan to keep scanning new sites."
)
