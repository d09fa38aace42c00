package webcache

import (
	"net/http"
	"path"
	"strings"
)

// Strategy selects how an intercepted request is cached.
type Strategy int

const (
	// StrategyPassThrough proxies the request without touching the cache.
	StrategyPassThrough Strategy = iota

	// StrategyStaleWhileRevalidate serves the cached response immediately
	// and refreshes it in the background.
	StrategyStaleWhileRevalidate

	// StrategyNetworkFirst tries the network, then the cache, then the
	// offline page.
	StrategyNetworkFirst

	// StrategyCacheFirst serves the cached response, fetching and caching
	// on a miss.
	StrategyCacheFirst

	// StrategyCacheFirstBounded is cache-first with FIFO eviction once
	// the bucket reaches its bound.
	StrategyCacheFirstBounded
)

// String returns the strategy name for logging.
func (s Strategy) String() string {
	switch s {
	case StrategyPassThrough:
		return "pass_through"
	case StrategyStaleWhileRevalidate:
		return "stale_while_revalidate"
	case StrategyNetworkFirst:
		return "network_first"
	case StrategyCacheFirst:
		return "cache_first"
	case StrategyCacheFirstBounded:
		return "cache_first_bounded"
	default:
		return "unknown"
	}
}

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".svg":  {},
	".ico":  {},
}

// isImagePath reports whether p names an image asset.
func isImagePath(p string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// isMapPath reports whether p names a map tile or map library asset.
func isMapPath(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return strings.Contains(p, "/tiles/") || ext == ".pbf" || ext == ".pmtiles"
}

// isNavigation reports whether the request is a page navigation rather
// than a subresource load.
func isNavigation(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Dest") == "document" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// classifier routes intercepted requests to strategies and bucket classes.
type classifier struct {
	// allowedOrigins are the only cross-origin hosts whose responses may
	// be cached. All other cross-origin traffic passes through untouched.
	allowedOrigins map[string]struct{}
}

func newClassifier(origins []string) *classifier {
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return &classifier{allowedOrigins: allowed}
}

// classify maps a request to its strategy and bucket class. crossOrigin is
// true when the request targets a host other than the app origin.
func (c *classifier) classify(r *http.Request, crossOrigin bool) (Strategy, BucketClass) {
	p := r.URL.Path

	if crossOrigin {
		if _, ok := c.allowedOrigins[r.URL.Host]; !ok {
			return StrategyPassThrough, ""
		}
		if isImagePath(p) {
			return StrategyCacheFirstBounded, BucketImages
		}
		// Allow-listed origins carry tiles, map styles, and map
		// libraries; everything non-image goes to the maps bucket.
		return StrategyCacheFirstBounded, BucketMaps
	}

	if strings.HasSuffix(p, ".json") {
		return StrategyStaleWhileRevalidate, BucketAPI
	}
	if isImagePath(p) {
		return StrategyCacheFirstBounded, BucketImages
	}
	if isMapPath(p) {
		return StrategyCacheFirstBounded, BucketMaps
	}
	if isNavigation(r) {
		return StrategyNetworkFirst, BucketStatic
	}
	return StrategyCacheFirst, BucketStatic
}
