package cache

import (
	"encoding/json"
	"time"
)

// entry wraps a cached value with its write timestamp. It is owned
// exclusively by Store and never escapes a get/set call.
type entry struct {
	// Value is the cached payload, kept as raw JSON so the store stays
	// agnostic of the resource schemas it holds.
	Value json.RawMessage `json:"value"`

	// WrittenAt is when the entry was last successfully written.
	WrittenAt time.Time `json:"written_at"`
}

// age returns the entry's age relative to now.
func (e entry) age(now time.Time) time.Duration {
	return now.Sub(e.WrittenAt)
}

// fresh reports whether the entry is within the TTL at time now. Staleness
// never deletes an entry; it only controls whether a non-stale read may
// return it.
func (e entry) fresh(now time.Time, ttl time.Duration) bool {
	return e.age(now) <= ttl
}
