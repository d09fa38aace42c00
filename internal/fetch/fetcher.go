// Package fetch orchestrates resource retrieval over the cache: serve fresh
// cached data without touching the network, refresh when stale or forced,
// and fall back to a stale cached copy when the network fails.
//
// The directory's data changes slowly (daily at most), so a day-old listing
// during an outage is strictly better than an error. A fetch failure is
// surfaced to the caller only on a genuinely cold cache.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/cache"
	"github.com/caremap/caremap/internal/directory"
)

// DefaultTimeout bounds each resource request. A request still in flight
// after this long fails and falls through to the stale-cache fallback.
const DefaultTimeout = 12 * time.Second

// Fetcher retrieves the five resource types from the static JSON API.
// Fetches for different resource types may run arbitrarily concurrently;
// concurrent fetches for the same type are not deduplicated, last write
// wins in the cache.
type Fetcher struct {
	client  *http.Client
	baseURL string
	store   *cache.Store
	logger  zerolog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the default client. Tests point this at an
// httptest server's client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// New creates a Fetcher for the API rooted at baseURL, caching through
// store.
func New(baseURL string, store *cache.Store, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		store:   store,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Programs returns the program listings, refreshing if stale or forced.
func (f *Fetcher) Programs(ctx context.Context, force bool) ([]directory.Program, error) {
	return getResource[[]directory.Program](ctx, f, directory.ResourcePrograms, force)
}

// Categories returns the service categories, refreshing if stale or forced.
func (f *Fetcher) Categories(ctx context.Context, force bool) ([]directory.Category, error) {
	return getResource[[]directory.Category](ctx, f, directory.ResourceCategories, force)
}

// Groups returns the population groups, refreshing if stale or forced.
func (f *Fetcher) Groups(ctx context.Context, force bool) ([]directory.Group, error) {
	return getResource[[]directory.Group](ctx, f, directory.ResourceGroups, force)
}

// Areas returns the service areas, refreshing if stale or forced.
func (f *Fetcher) Areas(ctx context.Context, force bool) ([]directory.Area, error) {
	return getResource[[]directory.Area](ctx, f, directory.ResourceAreas, force)
}

// Metadata returns the dataset metadata, refreshing if stale or forced.
// After a successful refresh it compares the published schema version with
// the previously cached one and invalidates cached resource data on a major
// version increase, so stale-shaped payloads are never served to a newer
// decoder.
func (f *Fetcher) Metadata(ctx context.Context, force bool) (directory.Metadata, error) {
	prev, prevRes := cache.GetAs[directory.Metadata](f.store, cache.KeyMetadata, true)

	meta, err := getResource[directory.Metadata](ctx, f, directory.ResourceMetadata, force)
	if err != nil {
		return meta, err
	}

	if prevRes == cache.ResultHit {
		f.invalidateOnSchemaBump(prev.SchemaVersion, meta.SchemaVersion)
	}
	return meta, nil
}

// invalidateOnSchemaBump clears cached resource data when the published
// schema's major version moved past the cached one. Unparseable versions
// are ignored; invalidation is an optimization, not a guarantee.
func (f *Fetcher) invalidateOnSchemaBump(previous, current string) {
	if previous == "" || current == "" || previous == current {
		return
	}

	prevVer, err := semver.NewVersion(previous)
	if err != nil {
		return
	}
	curVer, err := semver.NewVersion(current)
	if err != nil {
		return
	}

	if curVer.Major() <= prevVer.Major() {
		return
	}

	f.logger.Info().
		Str("previous", previous).
		Str("current", current).
		Msg("schema major version changed, clearing cached resource data")

	for _, key := range []cache.Key{cache.KeyPrograms, cache.KeyCategories, cache.KeyGroups, cache.KeyAreas} {
		f.store.Remove(key)
	}
}

// getResource implements the shared fetch algorithm for one resource type:
//
//  1. Unless forced, a fresh cached value is returned without a network call.
//  2. Otherwise the endpoint is fetched; a decoded 2xx body is written back
//     to the cache and returned.
//  3. On any fetch failure, a cached value of any age is returned instead,
//     and the failure is not surfaced.
//  4. With no cached value at all, the failure propagates.
func getResource[T any](ctx context.Context, f *Fetcher, rt directory.ResourceType, force bool) (T, error) {
	key := rt.CacheKey()

	if !force {
		if value, res := cache.GetAs[T](f.store, key, false); res == cache.ResultHit {
			f.logger.Debug().Str("resource", string(rt)).Msg("serving fresh cached data")
			return value, nil
		}
	}

	value, err := requestResource[T](ctx, f, rt)
	if err == nil {
		f.store.Set(key, value)
		return value, nil
	}

	if fallback, res := cache.GetAs[T](f.store, key, true); res == cache.ResultHit {
		f.logger.Warn().Err(err).Str("resource", string(rt)).Msg("fetch failed, serving stale cached data")
		return fallback, nil
	}

	var zero T
	return zero, err
}

// requestResource performs the network request and decodes the body.
func requestResource[T any](ctx context.Context, f *Fetcher, rt directory.ResourceType) (T, error) {
	var zero T
	url := f.baseURL + "/" + rt.Endpoint()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return zero, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return zero, &HTTPError{URL: url, Status: resp.StatusCode}
	}

	var value T
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return zero, &DecodeError{URL: url, Err: err}
	}
	return value, nil
}
