// Package cli wires configuration, logging, storage, and the caremap
// subcommands. Dependencies are constructed here once per invocation and
// injected explicitly; no package in this module reaches for a global
// cache, config, or logger instance.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caremap/caremap/internal/cache"
	"github.com/caremap/caremap/internal/config"
	"github.com/caremap/caremap/internal/logging"
)

// app carries the dependencies shared by subcommands, built in the root
// command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewRootCmd creates the root cobra command for the caremap CLI.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:     "caremap",
		Short:   "Offline cache core for the caremap directory",
		Long:    "caremap manages the cached Bay Area service directory: fetching resource data,\nserving the offline-resilient web cache, and tracking saved programs.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Logging.Level = "debug"
				cfg.Logging.Format = "console"
				cfg.Logging.File = ""
			}

			a.cfg = cfg
			a.logger = logging.New(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				File:   cfg.Logging.File,
			})
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath(), "path to the config file")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(a), newFetchCmd(a), newCacheCmd(a), newFavoritesCmd(a))

	return cmd
}

// openStore opens the on-device cache. The caller closes the returned
// backend when done.
func (a *app) openStore() (*cache.Store, *cache.SQLiteBackend, error) {
	backend, err := cache.NewSQLiteBackend(a.cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	store := cache.NewStore(backend,
		cache.WithTTL(a.cfg.TTL()),
		cache.WithLogger(logging.ComponentLogger(a.logger, "cache")),
	)
	return store, backend, nil
}
