// Package kv is the persistent key/value layer behind the result cache and
// quota ledger. Values are opaque bytes (JSON documents in practice); a
// missing key reads as (nil, nil).
package kv

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Store is a Repository that can also run a multi-key read-modify-write
// atomically and owns its underlying resources.
type Store interface {
	Repository

	// Atomic runs fn against a transactional view of the store. Writes made
	// through r are committed only if fn returns nil. Concurrent Atomic calls
	// are serialized.
	Atomic(ctx context.Context, fn func(ctx context.Context, r Repository) error) error

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
