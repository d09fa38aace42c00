package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caremap/caremap/internal/cache"
	"github.com/caremap/caremap/internal/favorites"
	"github.com/caremap/caremap/internal/logging"
)

func newFavoritesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favorites",
		Aliases: []string{"fav"},
		Short:   "Manage saved programs",
	}
	cmd.AddCommand(
		newFavoritesListCmd(a),
		newFavoritesToggleCmd(a),
		newFavoritesStatusCmd(a),
		newFavoritesNotesCmd(a),
	)
	return cmd
}

func newFavoritesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, closeStore, err := a.favoritesStore()
			if err != nil {
				return err
			}
			defer closeStore()

			records := store.List()
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved programs")
				return nil
			}
			for _, rec := range records {
				line := fmt.Sprintf("%-16s %-12s saved %s", rec.ID, rec.Status, rec.SavedAt.Format("2006-01-02"))
				if rec.Notes != "" {
					line += "  # " + rec.Notes
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newFavoritesToggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <program-id>",
		Short: "Save a program, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.favoritesStore()
			if err != nil {
				return err
			}
			defer closeStore()

			store.Toggle(args[0])
			if store.IsFavorite(args[0]) {
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			}
			return nil
		},
	}
}

func newFavoritesStatusCmd(a *app) *cobra.Command {
	statuses := make([]string, 0, len(favorites.AllStatuses()))
	for _, s := range favorites.AllStatuses() {
		statuses = append(statuses, string(s))
	}

	return &cobra.Command{
		Use:   "status <program-id> <status>",
		Short: "Update the application status for a saved program",
		Long:  "Update the application status for a saved program.\nValid statuses: " + strings.Join(statuses, ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.favoritesStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if !store.IsFavorite(args[0]) {
				return fmt.Errorf("%s is not a saved program", args[0])
			}
			if err := store.SetStatus(args[0], favorites.Status(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], args[1])
			return nil
		},
	}
}

func newFavoritesNotesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <program-id> [notes]",
		Short: "Set or clear notes on a saved program",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.favoritesStore()
			if err != nil {
				return err
			}
			defer closeStore()

			if !store.IsFavorite(args[0]) {
				return fmt.Errorf("%s is not a saved program", args[0])
			}
			notes := ""
			if len(args) == 2 {
				notes = args[1]
			}
			store.SetNotes(args[0], notes)
			if notes == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "cleared notes on %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "updated notes on %s\n", args[0])
			}
			return nil
		},
	}
}

// favoritesStore opens the favorites store over the shared SQLite substrate.
func (a *app) favoritesStore() (*favorites.Store, func(), error) {
	backend, err := cache.NewSQLiteBackend(a.cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	store := favorites.NewStore(backend,
		favorites.WithLogger(logging.ComponentLogger(a.logger, "favorites")),
	)
	return store, func() { _ = backend.Close() }, nil
}
