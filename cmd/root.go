package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"

	"github.com/megabytesme/SpotlightCacheService/internal/config"
	"github.com/megabytesme/SpotlightCacheService/internal/feed"
	"github.com/megabytesme/SpotlightCacheService/internal/refresh"
	"github.com/megabytesme/SpotlightCacheService/internal/scheduler"
	"github.com/megabytesme/SpotlightCacheService/internal/server"
	"github.com/megabytesme/SpotlightCacheService/internal/store"
	"github.com/megabytesme/SpotlightCacheService/internal/update"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagListen string
)

var rootCmd = &cobra.Command{
	Use:   "spotlightd",
	Short: "Spotlight image cache daemon",
	Long:  "spotlightd periodically fetches the vendor spotlight feed, caches the referenced images locally, and serves the cache over HTTP.",
	RunE:  runDaemon,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (overrides config)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(statsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("spotlightd %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func newLogger() log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if flagListen != "" {
		cfg.ListenAddr = flagListen
	}

	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.ImagesDir(), 0o755); err != nil {
		return fmt.Errorf("creating images dir: %w", err)
	}

	st := store.New(cfg.CacheFile(), log.With(logger, "component", "store"))
	if err := st.Load(); err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}
	level.Info(logger).Log("msg", "cache loaded", "entries", st.Len(), "path", cfg.CacheFile())

	go func() {
		if res := update.Check(ctx, version); res != nil {
			level.Info(logger).Log("msg", "new version available", "latest", res.LatestVersion, "current", version)
		}
	}()

	feedClient := feed.NewClient(cfg.FeedURL, log.With(logger, "component", "feed"))
	refresher := refresh.New(feedClient, st, cfg.ImagesDir(), cfg.Quality, log.With(logger, "component", "refresh"))
	sched := scheduler.New(scheduler.DefaultGrace, cfg.RefreshDuration(), log.With(logger, "component", "scheduler"), refresher.Run)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(st, cfg.ImagesDir(), log.With(logger, "component", "http")).Router(),
	}
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	level.Info(logger).Log("msg", "listening", "addr", cfg.ListenAddr, "interval", cfg.RefreshDuration())

	select {
	case <-ctx.Done():
		level.Info(logger).Log("msg", "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			level.Error(logger).Log("msg", "http shutdown failed", "err", err)
		}
	case err := <-errc:
		stop()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	wg.Wait()
	level.Info(logger).Log("msg", "shutdown complete")
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
