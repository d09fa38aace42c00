// Package webcache implements the request-interception cache for the web
// target: an HTTP handler that fronts the app origin, classifies each
// request into one of four caching strategies, and stores responses in
// named, versioned cache buckets.
//
// Strategies:
//   - stale-while-revalidate for API JSON: serve the cached response
//     immediately and refresh it in the background
//   - network-first with offline fallback for page navigations
//   - cache-first with network fallback for static assets
//   - cache-first with bounded FIFO eviction for images and map tiles
//
// Buckets are append-mostly partitions named <app>-<class>-<version>.
// The version is a build-time string; a new build creates fresh buckets
// and activation deletes every bucket from a prior version. That deletion
// is the sole garbage-collection mechanism; there is no background sweep.
//
// Bucket mutations are not transactionally isolated, so under heavy
// concurrent writes the eviction bound is a soft target; slight overshoot
// is expected and harmless.
package webcache
