// Package favorites persists the user's saved programs. Favorites share
// the cache's storage substrate but none of its TTL logic: a record lives
// until the user removes it. This is explicitly local-only state, with no
// network synchronization or multi-device merge.
package favorites

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/cache"
)

// Status tracks where the user is in the application process for a saved
// program.
type Status string

const (
	StatusSaved       Status = "saved"
	StatusResearching Status = "researching"
	StatusApplied     Status = "applied"
	StatusWaiting     Status = "waiting"
	StatusApproved    Status = "approved"
	StatusDenied      Status = "denied"
)

// AllStatuses returns the valid status values in progression order.
func AllStatuses() []Status {
	return []Status{
		StatusSaved,
		StatusResearching,
		StatusApplied,
		StatusWaiting,
		StatusApproved,
		StatusDenied,
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// ErrInvalidStatus is returned by SetStatus for an unknown status value.
var ErrInvalidStatus = errors.New("favorites: invalid status")

// Record is one saved program. Keyed by program id; never expires; mutated
// only by explicit user action.
type Record struct {
	ID              string     `json:"id"`
	SavedAt         time.Time  `json:"saved_at"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
}

// Store holds the favorites set. All access is serialized through one
// mutex; the full record map is read from and written back to the backend
// on every mutation so durable storage stays the single source of truth.
type Store struct {
	mu      sync.Mutex
	backend cache.Backend
	logger  zerolog.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a favorites store over backend.
func NewStore(backend cache.Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: backend,
		logger:  zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsFavorite reports whether id is currently saved.
func (s *Store) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.load()[id]
	return ok
}

// Toggle saves id if absent and removes it if present. Toggling is
// self-inverse for membership; status and notes attached to a removed id
// are cleared with it and are not restored on re-save.
func (s *Store) Toggle(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	if _, ok := records[id]; ok {
		delete(records, id)
	} else {
		records[id] = Record{
			ID:      id,
			SavedAt: s.now(),
			Status:  StatusSaved,
		}
	}
	s.save(records)
}

// SetStatus updates the status for a saved id. Unknown ids are ignored;
// unknown status values are rejected.
func (s *Store) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	rec, ok := records[id]
	if !ok {
		return nil
	}

	now := s.now()
	rec.Status = status
	rec.StatusUpdatedAt = &now
	records[id] = rec
	s.save(records)
	return nil
}

// SetNotes updates the notes for a saved id. An empty string clears the
// notes. Unknown ids are ignored.
func (s *Store) SetNotes(id, notes string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	rec, ok := records[id]
	if !ok {
		return
	}

	rec.Notes = notes
	records[id] = rec
	s.save(records)
}

// Get returns the record for id, if saved.
func (s *Store) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.load()[id]
	return rec, ok
}

// List returns all saved records, most recently saved first.
func (s *Store) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.load()
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

// load reads the record map from storage. Absent or unreadable data yields
// an empty map; an unreadable favorites blob self-heals on the next save.
func (s *Store) load() map[string]Record {
	data, err := s.backend.Get(string(cache.KeyFavorites))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn().Err(err).Msg("favorites read failed, starting empty")
		}
		return make(map[string]Record)
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn().Err(err).Msg("undecodable favorites data, starting empty")
		return make(map[string]Record)
	}
	if records == nil {
		records = make(map[string]Record)
	}
	return records
}

// save writes the record map back to storage. Failures are logged; the
// in-memory view for this call is already consistent and the next mutation
// retries the write.
func (s *Store) save(records map[string]Record) {
	data, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn().Err(err).Msg("favorites not serializable, skipping write")
		return
	}
	if err := s.backend.Set(string(cache.KeyFavorites), data); err != nil {
		s.logger.Warn().Err(err).Msg("favorites write failed")
	}
}
