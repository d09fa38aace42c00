package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/caremap/caremap/internal/logging"
	"github.com/caremap/caremap/internal/webcache"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the offline cache proxy for the web app",
		Long:  "Run the request-interception cache: an HTTP proxy fronting the app origin\nthat applies per-resource caching strategies, precaches the app shell and\nAPI data at startup, and reclaims buckets left by prior versions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.ComponentLogger(a.logger, "webcache")

			buckets, err := webcache.NewBucketStore(a.cfg.Web.BucketPath)
			if err != nil {
				return err
			}
			defer buckets.Close()

			handler, err := webcache.NewHandler(a.cfg.Web, buckets, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if skip, _ := cmd.Flags().GetBool("no-precache"); !skip {
				if err := handler.Install(ctx); err != nil {
					return err
				}
			}
			if err := handler.Activate(ctx); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              a.cfg.Web.Listen,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info().
				Str("listen", a.cfg.Web.Listen).
				Str("upstream", a.cfg.Web.Upstream).
				Str("version", handler.Version()).
				Msg("cache proxy listening")

			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Bool("no-precache", false, "skip precaching the app shell and API data at startup")
	return cmd
}
