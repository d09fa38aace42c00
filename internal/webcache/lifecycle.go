package webcache

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/caremap/caremap/internal/directory"
)

// appShellRoutes are the app routes precached at install time so the shell
// renders offline.
var appShellRoutes = []string{
	"/",
	"/search",
	"/map",
	"/favorites",
	"/about",
}

// apiPrecachePaths returns the JSON endpoints warmed into the api bucket:
// the five resource types plus the crisis-resources endpoint, which is
// cached for offline access only and never fetched by the resource layer.
func apiPrecachePaths() []string {
	paths := make([]string, 0, len(directory.AllResourceTypes())+1)
	for _, rt := range directory.AllResourceTypes() {
		paths = append(paths, "/v1/"+rt.Endpoint())
	}
	return append(paths, "/v1/emergency.json")
}

// Install pre-populates the static-shell and API buckets for the current
// version. Shell and API precaching must succeed for installation to
// succeed; map resources are cross-origin and precached best-effort, so
// their failures are logged and tolerated.
func (h *Handler) Install(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	staticBucket := h.bucketName(BucketStatic)
	for _, route := range append(appShellRoutes, h.offline) {
		target := h.pathTarget(route)
		g.Go(func() error {
			return h.precacheTarget(ctx, staticBucket, target, 0)
		})
	}

	apiBucket := h.bucketName(BucketAPI)
	for _, path := range apiPrecachePaths() {
		target := h.pathTarget(path)
		g.Go(func() error {
			return h.precacheTarget(ctx, apiBucket, target, 0)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("installing version %s: %w", h.version, err)
	}

	mapsBucket := h.bucketName(BucketMaps)
	for _, target := range h.precache {
		if err := h.precacheTarget(ctx, mapsBucket, target, h.bounds[BucketMaps]); err != nil {
			h.logger.Warn().Err(err).Str("url", target).Msg("map resource precache failed, continuing")
		}
	}

	h.logger.Info().Str("version", h.version).Msg("cache buckets installed")
	return nil
}

// precacheTarget fetches target and stores a 2xx response in bucket.
func (h *Handler) precacheTarget(ctx context.Context, bucket, target string, maxEntries int) error {
	resp, err := h.fetch(ctx, target)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("precaching %s: unexpected status %d", target, resp.Status)
	}
	return h.buckets.Put(bucket, target, resp, maxEntries)
}

// Activate reclaims storage left by prior builds: every bucket whose name
// is not in the current version set is deleted. This is the sole
// garbage-collection mechanism for bucket data.
func (h *Handler) Activate(ctx context.Context) error {
	current := make(map[string]struct{}, len(AllBucketClasses()))
	for _, class := range AllBucketClasses() {
		current[h.bucketName(class)] = struct{}{}
	}

	names, err := h.buckets.BucketNames()
	if err != nil {
		return fmt.Errorf("activating version %s: %w", h.version, err)
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := current[name]; ok {
			continue
		}
		if err := h.buckets.DeleteBucket(name); err != nil {
			return fmt.Errorf("activating version %s: %w", h.version, err)
		}
		h.logger.Info().Str("bucket", name).Msg("deleted bucket from prior version")
	}

	h.logger.Info().Str("version", h.version).Msg("cache version activated")
	return nil
}
