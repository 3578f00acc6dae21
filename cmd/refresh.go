package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/megabytesme/SpotlightCacheService/internal/config"
	"github.com/megabytesme/SpotlightCacheService/internal/feed"
	"github.com/megabytesme/SpotlightCacheService/internal/refresh"
	"github.com/megabytesme/SpotlightCacheService/internal/store"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle and exit",
	Long:  "Fetch the feed, download and transcode any missing images, and rewrite the cache snapshot, without starting the HTTP server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		logger := newLogger()

		st := store.New(cfg.CacheFile(), log.With(logger, "component", "store"))
		if err := st.Load(); err != nil {
			return fmt.Errorf("loading cache: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		feedClient := feed.NewClient(cfg.FeedURL, log.With(logger, "component", "feed"))
		refresh.New(feedClient, st, cfg.ImagesDir(), cfg.Quality, log.With(logger, "component", "refresh")).Run(ctx)

		fmt.Printf("Cache holds %d entries.\n", st.Len())
		return nil
	},
}
