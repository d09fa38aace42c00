package cache

import "errors"

// ErrNotFound is returned by Backend.Get when no value exists for a key.
var ErrNotFound = errors.New("cache backend: key not found")

// Backend is the byte-oriented persistent substrate beneath Store and the
// favorites store. Implementations must be safe for concurrent use; each
// call is individually atomic, but sequences of calls are not.
type Backend interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, replacing any prior value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Keys returns every stored key.
	Keys() ([]string, error)

	// Close releases the underlying storage.
	Close() error
}
