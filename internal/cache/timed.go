package cache

import (
	"context"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
)

type timedMap map[string]models.TimedEntry

// IsCachedSafe reports a fresh safe verdict for exactly this URL.
func (s *Store) IsCachedSafe(ctx context.Context, url string) (bool, error) {
	return s.isFresh(ctx, KeySafeURLs, url)
}

// RecordSafe caches a clean pass. A fresh entry keeps its original stamp.
func (s *Store) RecordSafe(ctx context.Context, url string) error {
	return s.record(ctx, KeySafeURLs, url)
}

// IsRiskAccepted reports a fresh user override for this URL.
func (s *Store) IsRiskAccepted(ctx context.Context, url string) (bool, error) {
	return s.isFresh(ctx, KeyAcceptedRisks, url)
}

func (s *Store) RecordRiskAccepted(ctx context.Context, url string) error {
	return s.record(ctx, KeyAcceptedRisks, url)
}

func (s *Store) fresh(e models.TimedEntry, now time.Time) bool {
	return now.Sub(e.Time()) < s.ttl
}

func (s *Store) isFresh(ctx context.Context, key, url string) (bool, error) {
	m, err := load[timedMap](ctx, s, s.kv, key)
	if err != nil {
		return false, err
	}
	e, ok := m[url]
	return ok && s.fresh(e, s.clock.Now()), nil
}

func (s *Store) record(ctx context.Context, key, url string) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		m, err := load[timedMap](ctx, s, r, key)
		if err != nil {
			return err
		}
		if m == nil {
			m = timedMap{}
		}
		now := s.clock.Now()
		if e, ok := m[url]; ok && s.fresh(e, now) {
			return nil
		}
		m[url] = models.TimedEntry{Timestamp: now.UnixMilli()}
		return saveJSON(ctx, r, key, m)
	})
}

// Sweep drops expired entries from both timed maps and returns how many
// were removed.
func (s *Store) Sweep(ctx context.Context) (int, error) {
	removed := 0
	for _, key := range []string{KeySafeURLs, KeyAcceptedRisks} {
		err := s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
			m, err := load[timedMap](ctx, s, r, key)
			if err != nil {
				return err
			}
			now := s.clock.Now()
			n := 0
			for url, e := range m {
				if !s.fresh(e, now) {
					delete(m, url)
					n++
				}
			}
			if n == 0 {
				return nil
			}
			removed += n
			return saveJSON(ctx, r, key, m)
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error(ctx, "cache sweep failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info(ctx, "cache sweep removed expired entries", "removed", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
