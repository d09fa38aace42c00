package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/caremap/caremap/internal/directory"
)

// Dataset aggregates one load of all five resource types.
type Dataset struct {
	Programs   []directory.Program
	Categories []directory.Category
	Groups     []directory.Group
	Areas      []directory.Area
	Metadata   directory.Metadata
}

// LoadAll fetches all five resource types concurrently and aggregates the
// results. The five fetches are independent: each applies its own cache and
// stale-fallback policy, and a failure in one does not cancel the others
// (an abandoned result is still written to the cache for next time). The
// first failure, if any, is returned after all fetches complete.
//
// Concurrent LoadAll calls are not coordinated; overlapping refreshes of
// the same resource type both hit the network and the later write wins.
func (f *Fetcher) LoadAll(ctx context.Context, force bool) (*Dataset, error) {
	var (
		ds Dataset
		g  errgroup.Group
	)

	g.Go(func() error {
		var err error
		ds.Programs, err = f.Programs(ctx, force)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Categories, err = f.Categories(ctx, force)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Groups, err = f.Groups(ctx, force)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Areas, err = f.Areas(ctx, force)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Metadata, err = f.Metadata(ctx, force)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}
