package webcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	// Registers the sqlite3 driver with database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// BucketClass names one of the four cache partitions.
type BucketClass string

const (
	// BucketStatic holds the app shell and generic static assets.
	BucketStatic BucketClass = "static"

	// BucketAPI holds the JSON resource endpoints.
	BucketAPI BucketClass = "api"

	// BucketImages holds program and category imagery, bounded.
	BucketImages BucketClass = "images"

	// BucketMaps holds map tiles and map libraries, bounded.
	BucketMaps BucketClass = "maps"
)

// AllBucketClasses returns the four bucket classes.
func AllBucketClasses() []BucketClass {
	return []BucketClass{BucketStatic, BucketAPI, BucketImages, BucketMaps}
}

// BucketName builds the versioned bucket name <app>-<class>-<version>.
func BucketName(app string, class BucketClass, version string) string {
	return fmt.Sprintf("%s-%s-%s", app, class, version)
}

// CachedResponse is a stored HTTP response.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the response is cacheable (2xx).
func (c *CachedResponse) OK() bool {
	return c.Status >= 200 && c.Status <= 299
}

const createBucketTable = `CREATE TABLE IF NOT EXISTS bucket_entries (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	bucket TEXT    NOT NULL,
	url    TEXT    NOT NULL,
	status INTEGER NOT NULL,
	header TEXT    NOT NULL,
	body   BLOB    NOT NULL,
	UNIQUE (bucket, url)
)`

// BucketStore persists cache buckets in SQLite. Autoincrement row ids give
// the enumeration order used for FIFO eviction: the lowest id in a bucket
// is its oldest-inserted member.
type BucketStore struct {
	db *sql.DB
}

// NewBucketStore opens (creating if needed) the bucket database at path.
func NewBucketStore(path string) (*BucketStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating bucket directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening bucket database: %w", err)
	}

	if _, err := db.Exec(createBucketTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket table: %w", err)
	}

	return &BucketStore{db: db}, nil
}

// Get returns the cached response stored in bucket for url.
func (s *BucketStore) Get(bucket, url string) (*CachedResponse, bool) {
	var (
		status int
		header string
		body   []byte
	)
	err := s.db.QueryRow(
		"SELECT status, header, body FROM bucket_entries WHERE bucket = ? AND url = ?",
		bucket, url,
	).Scan(&status, &header, &body)
	if err != nil {
		return nil, false
	}

	resp := &CachedResponse{Status: status, Header: http.Header{}, Body: body}
	if err := json.Unmarshal([]byte(header), &resp.Header); err != nil {
		// Unreadable header metadata makes the whole entry unusable;
		// treat as absent and let the next Put overwrite it.
		return nil, false
	}
	return resp, true
}

// Put stores resp in bucket under url, replacing any prior entry for the
// same url in place (replacement keeps the original insertion position).
// When maxEntries is positive and inserting a new member would exceed it,
// enough oldest-inserted members are deleted first to make room. The bound
// is soft under concurrent writers.
func (s *BucketStore) Put(bucket, url string, resp *CachedResponse, maxEntries int) error {
	header, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("encoding response header: %w", err)
	}

	var existing int64
	err = s.db.QueryRow(
		"SELECT id FROM bucket_entries WHERE bucket = ? AND url = ?",
		bucket, url,
	).Scan(&existing)
	switch {
	case err == nil:
		_, err = s.db.Exec(
			"UPDATE bucket_entries SET status = ?, header = ?, body = ? WHERE id = ?",
			resp.Status, string(header), resp.Body, existing,
		)
		if err != nil {
			return fmt.Errorf("updating bucket entry: %w", err)
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking bucket entry: %w", err)
	}

	if maxEntries > 0 {
		count, countErr := s.Count(bucket)
		if countErr != nil {
			return countErr
		}
		if excess := count - maxEntries + 1; excess > 0 {
			_, err = s.db.Exec(
				`DELETE FROM bucket_entries WHERE id IN (
					SELECT id FROM bucket_entries WHERE bucket = ? ORDER BY id ASC LIMIT ?
				)`,
				bucket, excess,
			)
			if err != nil {
				return fmt.Errorf("evicting bucket entries: %w", err)
			}
		}
	}

	_, err = s.db.Exec(
		"INSERT INTO bucket_entries (bucket, url, status, header, body) VALUES (?, ?, ?, ?, ?)",
		bucket, url, resp.Status, string(header), resp.Body,
	)
	if err != nil {
		return fmt.Errorf("inserting bucket entry: %w", err)
	}
	return nil
}

// Count returns the number of entries in bucket.
func (s *BucketStore) Count(bucket string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM bucket_entries WHERE bucket = ?", bucket).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting bucket entries: %w", err)
	}
	return count, nil
}

// URLs returns the urls stored in bucket in insertion order.
func (s *BucketStore) URLs(bucket string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT url FROM bucket_entries WHERE bucket = ? ORDER BY id ASC", bucket,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bucket urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scanning bucket url: %w", err)
		}
		urls = append(urls, url)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bucket urls: %w", err)
	}
	return urls, nil
}

// BucketNames returns every bucket that currently holds at least one entry.
func (s *BucketStore) BucketNames() ([]string, error) {
	rows, err := s.db.Query("SELECT DISTINCT bucket FROM bucket_entries ORDER BY bucket")
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning bucket name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bucket names: %w", err)
	}
	return names, nil
}

// DeleteBucket removes every entry in bucket.
func (s *BucketStore) DeleteBucket(name string) error {
	if _, err := s.db.Exec("DELETE FROM bucket_entries WHERE bucket = ?", name); err != nil {
		return fmt.Errorf("deleting bucket %s: %w", name, err)
	}
	return nil
}

// DeleteAll removes every entry in every bucket.
func (s *BucketStore) DeleteAll() error {
	if _, err := s.db.Exec("DELETE FROM bucket_entries"); err != nil {
		return fmt.Errorf("deleting all buckets: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BucketStore) Close() error {
	return s.db.Close()
}
