// Package cache is the typed view over the key/value store: the 24h safe-url
// and accepted-risk caches, the monthly quota ledger and the scan history
// document.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/repositories/kv"
	"github.com/dmitrijs2005/phishguard/internal/timex"
)

// Persisted keys. The values are JSON documents.
const (
	KeySafeURLs      = "safe_urls"
	KeyAcceptedRisks = "accepted_risks"
	KeyScannedURLs   = "scannedUrls"
	KeyLastReset     = "lastReset"
	KeyScanData      = "scanData"
)

type Store struct {
	kv     kv.Store
	clock  timex.Clock
	ttl    time.Duration
	quota  int
	logger logging.Logger
}

type Option func(*Store)

func WithClock(c timex.Clock) Option { return func(s *Store) { s.clock = c } }

func WithTTL(d time.Duration) Option { return func(s *Store) { s.ttl = d } }

func WithQuota(n int) Option { return func(s *Store) { s.quota = n } }

func New(store kv.Store, logger logging.Logger, opts ...Option) *Store {
	s := &Store{
		kv:     store,
		clock:  timex.SystemClock{},
		ttl:    common.CacheTTL,
		quota:  common.MaxFreeUniqueScans,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Wipe erases everything the store holds: verdict caches, accepted risks,
// the quota ledger and scan history.
func (s *Store) Wipe(ctx context.Context) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		return r.Clear(ctx)
	})
}

// load decodes key into a T. A missing key yields the zero T; so does a
// corrupt value, which is logged and later overwritten.
func load[T any](ctx context.Context, s *Store, r kv.Repository, key string) (T, error) {
	var zero, v T
	b, err := r.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if len(b) == 0 {
		return zero, nil
	}
	if err := json.Unmarshal(b, &v); err != nil {
		s.logger.Warn(ctx, "discarding corrupt cache value", "key", key, "err", err)
		return zero, nil
	}
	return v, nil
}

func saveJSON(ctx context.Context, r kv.Repository, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.Set(ctx, key, b)
}
