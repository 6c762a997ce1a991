package grantcache

import "errors"

// ErrNotFound is returned by a Store when no cache exists for a period key.
var ErrNotFound = errors.New("period not cached")

// Store persists one PeriodCache document per period key. Backends must
// make Put atomic per period: an interrupted run leaves every previously
// written period readable.
type Store interface {
	Get(key string) (*PeriodCache, error)
	Put(cache *PeriodCache) error
}
