// Package kvstore provides the persistent key-value storage used for the
// catalog and settings blobs. Backends are interchangeable: a file per key
// on disk (default), a single Postgres table, Redis, or an in-memory map.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// KV stores opaque string values under fixed keys. Set overwrites any prior
// value; a failed Set leaves the previous value intact.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
