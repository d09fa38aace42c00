package webcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/caremap/caremap/internal/config"
)

// Handler is the interception proxy. It fronts the app origin, serving
// every request through one of the four caching strategies, and exposes
// the control endpoints under /_cache/. Each intercepted request is
// processed independently and concurrently.
type Handler struct {
	app      string
	version  string
	upstream *url.URL
	client   *http.Client
	buckets  *BucketStore
	router   *classifier
	offline  string
	bounds   map[BucketClass]int
	precache []string
	logger   zerolog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithClient overrides the upstream HTTP client.
func WithClient(client *http.Client) HandlerOption {
	return func(h *Handler) { h.client = client }
}

// NewHandler builds the interception proxy from the web configuration.
func NewHandler(cfg config.WebConfig, buckets *BucketStore, logger zerolog.Logger, opts ...HandlerOption) (*Handler, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream URL: %w", err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream URL %q must be absolute", cfg.Upstream)
	}

	h := &Handler{
		app:      "caremap",
		version:  cfg.Version,
		upstream: upstream,
		client:   &http.Client{Timeout: config.DefaultTimeoutSeconds * time.Second},
		buckets:  buckets,
		router:   newClassifier(cfg.AllowedOrigins),
		offline:  cfg.OfflinePath,
		bounds: map[BucketClass]int{
			BucketImages: cfg.ImageBucketMax,
			BucketMaps:   cfg.MapBucketMax,
		},
		precache: cfg.MapPrecache,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Version returns the active bucket version string.
func (h *Handler) Version() string {
	return h.version
}

// bucketName returns the versioned bucket name for class.
func (h *Handler) bucketName(class BucketClass) string {
	return BucketName(h.app, class, h.version)
}

// targetURL canonicalizes the request into the absolute URL used both to
// reach the upstream and as the cache key within a bucket.
func (h *Handler) targetURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	u := *h.upstream
	u.Path = r.URL.Path
	u.RawQuery = r.URL.RawQuery
	return u.String()
}

// pathTarget canonicalizes an app-origin path the same way targetURL does.
func (h *Handler) pathTarget(path string) string {
	u := *h.upstream
	u.Path = path
	return u.String()
}

// ServeHTTP classifies the request and dispatches to its strategy.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !r.URL.IsAbs() && strings.HasPrefix(r.URL.Path, "/_cache/") {
		h.handleControl(w, r)
		return
	}

	logger := h.logger.With().
		Str("request_id", ulid.Make().String()).
		Str("method", r.Method).
		Str("url", h.targetURL(r)).
		Logger()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.passThrough(w, r, logger)
		return
	}

	crossOrigin := r.URL.IsAbs() && r.URL.Host != h.upstream.Host
	strategy, class := h.router.classify(r, crossOrigin)
	logger = logger.With().Stringer("strategy", strategy).Logger()

	target := h.targetURL(r)
	bucket := h.bucketName(class)

	switch strategy {
	case StrategyStaleWhileRevalidate:
		h.staleWhileRevalidate(w, r, target, bucket, logger)
	case StrategyNetworkFirst:
		h.networkFirst(w, r, target, bucket, logger)
	case StrategyCacheFirst:
		h.cacheFirst(w, r, target, bucket, 0, logger)
	case StrategyCacheFirstBounded:
		h.cacheFirst(w, r, target, bucket, h.bounds[class], logger)
	default:
		h.passThrough(w, r, logger)
	}
}

// staleWhileRevalidate serves the cached response immediately when present,
// refreshing the bucket in the background for the next request. The
// revalidation deliberately outlives the request: there is no cancellation
// propagation into it, its result is simply written to the bucket.
func (h *Handler) staleWhileRevalidate(w http.ResponseWriter, r *http.Request, target, bucket string, logger zerolog.Logger) {
	if cached, ok := h.buckets.Get(bucket, target); ok {
		go h.revalidate(target, bucket, logger)
		writeCached(w, cached)
		return
	}

	resp, err := h.fetch(r.Context(), target)
	if err != nil {
		logger.Warn().Err(err).Msg("api fetch failed with cold cache")
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	if resp.OK() {
		h.storeResponse(bucket, target, resp, 0, logger)
	}
	writeCached(w, resp)
}

// revalidate refreshes one bucket entry from the network.
func (h *Handler) revalidate(target, bucket string, logger zerolog.Logger) {
	resp, err := h.fetch(context.Background(), target)
	if err != nil {
		logger.Debug().Err(err).Msg("background revalidation failed")
		return
	}
	if resp.OK() {
		h.storeResponse(bucket, target, resp, 0, logger)
	}
}

// networkFirst tries the network, then the cached copy for this exact
// request, then the offline page, then a synthetic unavailable response.
// Any response received from the upstream counts as network success; only
// 2xx responses are written back to the bucket.
func (h *Handler) networkFirst(w http.ResponseWriter, r *http.Request, target, bucket string, logger zerolog.Logger) {
	resp, err := h.fetch(r.Context(), target)
	if err == nil {
		if resp.OK() {
			h.storeResponse(bucket, target, resp, 0, logger)
		}
		writeCached(w, resp)
		return
	}

	logger.Warn().Err(err).Msg("navigation fetch failed, falling back")

	if cached, ok := h.buckets.Get(bucket, target); ok {
		writeCached(w, cached)
		return
	}
	if offline, ok := h.buckets.Get(bucket, h.pathTarget(h.offline)); ok {
		writeCached(w, offline)
		return
	}
	serviceUnavailable(w)
}

// cacheFirst serves the cached response when present; otherwise it
// fetches, caches a 2xx result, and returns the response. maxEntries
// bounds the bucket when positive.
func (h *Handler) cacheFirst(w http.ResponseWriter, r *http.Request, target, bucket string, maxEntries int, logger zerolog.Logger) {
	if cached, ok := h.buckets.Get(bucket, target); ok {
		writeCached(w, cached)
		return
	}

	resp, err := h.fetch(r.Context(), target)
	if err != nil {
		logger.Warn().Err(err).Msg("asset fetch failed")
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	if resp.OK() {
		h.storeResponse(bucket, target, resp, maxEntries, logger)
	}
	writeCached(w, resp)
}

// passThrough proxies the request untouched.
func (h *Handler) passThrough(w http.ResponseWriter, r *http.Request, logger zerolog.Logger) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, h.targetURL(r), r.Body)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	copyHeader(req.Header, r.Header)

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("pass-through failed")
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		logger.Debug().Err(err).Msg("pass-through copy interrupted")
	}
}

// fetch performs one upstream GET and buffers the full response.
func (h *Handler) fetch(ctx context.Context, target string) (*CachedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", target, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", target, err)
	}

	return &CachedResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// storeResponse writes resp into the bucket. A failed write is logged and
// otherwise ignored; caching must never fail the request being served.
func (h *Handler) storeResponse(bucket, target string, resp *CachedResponse, maxEntries int, logger zerolog.Logger) {
	if err := h.buckets.Put(bucket, target, resp, maxEntries); err != nil {
		logger.Warn().Err(err).Str("bucket", bucket).Msg("bucket write failed")
	}
}

// writeCached writes a stored response to the client.
func writeCached(w http.ResponseWriter, resp *CachedResponse) {
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

// copyHeader copies all header values from src to dst.
func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// serviceUnavailable is the last-resort synthetic response when network,
// per-request cache, and offline page are all unavailable.
func serviceUnavailable(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = io.WriteString(w, "<!doctype html><title>Offline</title><h1>You're offline</h1><p>Caremap needs a connection for this page.</p>")
}
