package cache

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTTL is the freshness window applied to resource entries.
const DefaultTTL = 24 * time.Hour

// Result tags the outcome of a cache read. Storage and decode failures are
// deliberately collapsed into miss-like outcomes rather than errors: the
// cache is an optimization, and a corrupted entry self-heals on the next
// successful Set for its key.
type Result int

const (
	// ResultHit means a value was returned.
	ResultHit Result = iota

	// ResultMiss means no entry exists for the key.
	ResultMiss

	// ResultExpired means an entry exists but its age exceeds the TTL and
	// the read did not allow stale values.
	ResultExpired

	// ResultCorrupt means an entry exists but could not be decoded. Reads
	// treat this identically to a miss; the tag exists so tests can tell
	// "never written" from "written but unreadable".
	ResultCorrupt
)

// String returns the outcome name for logging.
func (r Result) String() string {
	switch r {
	case ResultHit:
		return "hit"
	case ResultMiss:
		return "miss"
	case ResultExpired:
		return "expired"
	case ResultCorrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Store is the TTL-aware key/value cache. One Store owns all access to its
// Backend; every read and write is serialized through its mutex, so
// individual calls never interleave. Sequences of calls (check freshness,
// then set) are not transactional: two overlapping refreshes of one key
// race benignly, last write wins.
//
// Construct one Store at startup and inject it into consumers. There is no
// package-level instance.
type Store struct {
	mu      sync.Mutex
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the default freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithClock overrides the store's time source. Tests use this to step
// entries across the freshness boundary without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger attaches a logger for swallowed-failure diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a Store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the store's freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Get returns the raw value stored under key. When allowStale is false an
// entry older than the TTL is withheld (ResultExpired); when true the entry
// is returned regardless of age. Auxiliary settings keys are exempt from
// expiry entirely. A value is returned iff the result is ResultHit.
func (s *Store) Get(key Key, allowStale bool) (json.RawMessage, Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Get(string(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache read failed, treating as miss")
		}
		return nil, ResultMiss
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("undecodable cache entry, treating as miss")
		return nil, ResultCorrupt
	}

	expires := IsResourceKey(key)
	if expires && !allowStale && !e.fresh(s.now(), s.ttl) {
		return nil, ResultExpired
	}

	return e.Value, ResultHit
}

// Set serializes value together with the current timestamp and writes it
// under key, replacing any prior entry. Failures are logged and swallowed:
// a cache write must never fail the operation that attempted it.
func (s *Store) Set(key Key, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache value not serializable, skipping write")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(entry{Value: raw, WrittenAt: s.now()})
	if err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache entry not serializable, skipping write")
		return
	}

	if err := s.backend.Set(string(key), data); err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache write failed")
	}
}

// Remove deletes the entry for key, if any.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(string(key)); err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache delete failed")
	}
}

// ClearResources removes every TTL-bounded resource entry. Auxiliary
// settings keys are untouched. This backs both the explicit "clear cache"
// user action and schema-version invalidation.
func (s *Store) ClearResources() {
	for _, key := range ResourceKeys() {
		s.Remove(key)
	}
}

// Age returns the age of the entry under key, or false when no readable
// entry exists. Used for cache status reporting; never affects reads.
func (s *Store) Age(key Key) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Get(string(key))
	if err != nil {
		return 0, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return 0, false
	}
	return e.age(s.now()), true
}

// GetAs decodes the entry under key into T. A payload that does not decode
// as T counts as corrupt, consistent with the schema-change-makes-old-data-
// unreadable case.
func GetAs[T any](s *Store, key Key, allowStale bool) (T, Result) {
	var zero T

	raw, res := s.Get(key, allowStale)
	if res != ResultHit {
		return zero, res
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		s.logger.Warn().Err(err).Str("key", string(key)).Msg("cache payload does not match schema, treating as miss")
		return zero, ResultCorrupt
	}
	return value, ResultHit
}
