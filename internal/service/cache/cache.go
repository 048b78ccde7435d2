// Package cache provides the latest-value store behind the point lookup
// endpoint. Values are opaque bytes so the memory and Redis backends
// stay interchangeable.
package cache

import "time"

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
