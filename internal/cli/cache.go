package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/caremap/caremap/internal/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the on-device cache",
	}
	cmd.AddCommand(newCacheStatusCmd(a), newCacheClearCmd(a))
	return cmd
}

func newCacheStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the age and freshness of each cached resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, backend, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Close()

			out := cmd.OutOrStdout()
			for _, key := range cache.ResourceKeys() {
				age, ok := store.Age(key)
				if !ok {
					fmt.Fprintf(out, "%-22s absent\n", key)
					continue
				}
				state := "fresh"
				if age > store.TTL() {
					state = "stale"
				}
				fmt.Fprintf(out, "%-22s %s (age %s)\n", key, state, age.Round(time.Second))
			}
			return nil
		},
	}
}

func newCacheClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached resource data",
		Long:  "Remove every cached resource entry. Favorites and settings are kept;\nonly the downloadable directory data is cleared and will be refetched on\nthe next fetch.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, backend, err := a.openStore()
			if err != nil {
				return err
			}
			defer backend.Close()

			store.ClearResources()
			fmt.Fprintln(cmd.OutOrStdout(), "cached resource data cleared")
			return nil
		},
	}
}
