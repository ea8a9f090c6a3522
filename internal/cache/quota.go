package cache

import (
	"context"
	"slices"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
	"github.com/dmitrijs2005/phishguard/internal/timex"
)

// CheckAndConsumeQuota decides whether url may be scanned under the monthly
// cap. URLs already seen this month are free. When the calendar month or
// year changed since the last reset the ledger starts over with url as its
// first entry. A denial leaves the ledger untouched.
func (s *Store) CheckAndConsumeQuota(ctx context.Context, url string) (bool, error) {
	allowed := false
	err := s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		allowed = false
		now := s.clock.Now()

		stamp, err := load[string](ctx, s, r, KeyLastReset)
		if err != nil {
			return err
		}
		scanned, err := load[[]string](ctx, s, r, KeyScannedURLs)
		if err != nil {
			return err
		}

		last, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil || !timex.SameMonth(last.In(now.Location()), now) {
			if err := saveJSON(ctx, r, KeyLastReset, now.Format(time.RFC3339Nano)); err != nil {
				return err
			}
			allowed = true
			return saveJSON(ctx, r, KeyScannedURLs, []string{url})
		}

		if slices.Contains(scanned, url) {
			allowed = true
			return nil
		}
		if len(scanned) >= s.quota {
			return nil
		}

		allowed = true
		return saveJSON(ctx, r, KeyScannedURLs, append(scanned, url))
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// QuotaUsage returns how many distinct URLs were scanned this period and the cap.
func (s *Store) QuotaUsage(ctx context.Context) (used, limit int, err error) {
	scanned, err := load[[]string](ctx, s, s.kv, KeyScannedURLs)
	if err != nil {
		return 0, s.quota, err
	}
	return len(scanned), s.quota, nil
}

// ResetQuota clears the ledger, as on a plan change.
func (s *Store) ResetQuota(ctx context.Context) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		if err := r.Delete(ctx, KeyScannedURLs); err != nil {
			return err
		}
		return r.Delete(ctx, KeyLastReset)
	})
}
