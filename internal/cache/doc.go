// Package cache implements the TTL-aware key/value store shared by all
// caremap data consumers.
//
// Values are wrapped with their write timestamp and persisted through a
// byte-oriented Backend (SQLite on disk, an in-memory map in tests). Reads
// distinguish fresh entries from stale ones: a stale entry is withheld from
// normal reads but remains available as a fallback when the network is
// unavailable. Key features:
//   - Single global TTL (default 24h) for resource entries; auxiliary
//     settings keys never expire
//   - Stale reads via the allowStale flag
//   - Storage and serialization failures never cross the package boundary;
//     they collapse into a tagged miss outcome
//   - All mutation of one store is serialized through a single mutex
//
// The cache is an optimization, never a source of truth: a failed write must
// not fail the operation that attempted it.
package cache
