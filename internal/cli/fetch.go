package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/caremap/caremap/internal/directory"
	"github.com/caremap/caremap/internal/fetch"
	"github.com/caremap/caremap/internal/logging"
)

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "fetch [resource]",
		Short:     "Fetch directory data, refreshing the cache",
		Long:      "Fetch one resource type (programs, categories, groups, areas, metadata) or,\nwith no argument, all five concurrently. Fresh cached data is served without\na network call unless --force is given; on network failure the last cached\ncopy is used instead.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"programs", "categories", "groups", "areas", "metadata"},
		RunE: func(cmd *cobra.Command, args []string) error {
			store, backend, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Close()

			fetcher := fetch.New(a.cfg.API.BaseURL, store,
				fetch.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout()}),
				fetch.WithLogger(logging.ComponentLogger(a.logger, "fetch")),
			)

			force, _ := cmd.Flags().GetBool("force")
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				ds, err := fetcher.LoadAll(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "programs:   %d\n", len(ds.Programs))
				fmt.Fprintf(out, "categories: %d\n", len(ds.Categories))
				fmt.Fprintf(out, "groups:     %d\n", len(ds.Groups))
				fmt.Fprintf(out, "areas:      %d\n", len(ds.Areas))
				fmt.Fprintf(out, "metadata:   schema %s, updated %s\n",
					ds.Metadata.SchemaVersion, ds.Metadata.UpdatedAt.Format("2006-01-02"))
				return nil
			}

			switch directory.ResourceType(args[0]) {
			case directory.ResourcePrograms:
				programs, err := fetcher.Programs(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "programs: %d\n", len(programs))
			case directory.ResourceCategories:
				categories, err := fetcher.Categories(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "categories: %d\n", len(categories))
			case directory.ResourceGroups:
				groups, err := fetcher.Groups(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "groups: %d\n", len(groups))
			case directory.ResourceAreas:
				areas, err := fetcher.Areas(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "areas: %d\n", len(areas))
			case directory.ResourceMetadata:
				meta, err := fetcher.Metadata(ctx, force)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "metadata: schema %s, updated %s\n",
					meta.SchemaVersion, meta.UpdatedAt.Format("2006-01-02"))
			default:
				return fmt.Errorf("unknown resource %q", args[0])
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "refresh from the network even when cached data is fresh")
	return cmd
}
