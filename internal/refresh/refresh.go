// Package refresh runs one cache refresh cycle: fetch the feed, download
// and transcode the referenced assets, and atomically replace the cache
// snapshot. All failures are contained here; a cycle never propagates an
// error to its caller.
package refresh

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/megabytesme/SpotlightCacheService/internal/feed"
	"github.com/megabytesme/SpotlightCacheService/internal/fetch"
	"github.com/megabytesme/SpotlightCacheService/internal/store"
	"github.com/megabytesme/SpotlightCacheService/internal/transcode"
)

// downloadConcurrency bounds how many feed records are processed at once.
const downloadConcurrency = 4

type Refresher struct {
	feed       *feed.Client
	store      *store.Store
	downloader *fetch.Downloader
	imagesDir  string
	quality    int
	logger     log.Logger
}

func New(f *feed.Client, s *store.Store, imagesDir string, quality int, logger log.Logger) *Refresher {
	return &Refresher{
		feed:       f,
		store:      s,
		downloader: fetch.NewDownloader(),
		imagesDir:  imagesDir,
		quality:    quality,
		logger:     logger,
	}
}

// Run executes one cycle. A failed or empty feed fetch leaves the
// previous snapshot untouched, as does cancellation mid-cycle: files
// already downloaded stay on disk so the next cycle picks them up
// cheaply, but the snapshot is only replaced by a cycle that ran to
// completion.
func (r *Refresher) Run(ctx context.Context) {
	start := time.Now()

	ads, err := r.feed.Fetch(ctx)
	if err != nil {
		level.Error(r.logger).Log("msg", "feed fetch failed, keeping cache", "err", err)
		cycles.WithLabelValues("fetch_error").Inc()
		return
	}
	if len(ads) == 0 {
		level.Info(r.logger).Log("msg", "feed returned no items, keeping cache")
		cycles.WithLabelValues("empty_feed").Inc()
		return
	}

	if err := os.MkdirAll(r.imagesDir, 0o755); err != nil {
		level.Error(r.logger).Log("msg", "creating images dir failed", "err", err)
		cycles.WithLabelValues("io_error").Inc()
		return
	}

	// Slots keep feed order; records are processed with bounded
	// parallelism but never share state beyond their own slot.
	results := make([]*store.Entry, len(ads))
	var g errgroup.Group
	g.SetLimit(downloadConcurrency)
	for i, ad := range ads {
		i, ad := i, ad
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = r.processAd(ctx, ad)
			return nil
		})
	}
	g.Wait()

	if ctx.Err() != nil {
		level.Info(r.logger).Log("msg", "refresh cancelled, keeping previous snapshot")
		cycles.WithLabelValues("cancelled").Inc()
		return
	}

	entries := make([]store.Entry, 0, len(results))
	for _, e := range results {
		if e != nil {
			entries = append(entries, *e)
		}
	}

	r.store.Replace(entries)
	if err := r.store.Persist(); err != nil {
		level.Error(r.logger).Log("msg", "persisting cache failed, in-memory snapshot still current", "err", err)
	}

	cycles.WithLabelValues("success").Inc()
	cycleDuration.Observe(time.Since(start).Seconds())
	cacheEntries.Set(float64(len(entries)))
	level.Info(r.logger).Log("msg", "refresh complete", "entries", len(entries), "records", len(ads), "took", time.Since(start))
}

func (r *Refresher) processAd(ctx context.Context, ad feed.Ad) *store.Entry {
	landName := assetFilename(ad.LandscapeURL)
	portName := assetFilename(ad.PortraitURL)
	landPath := filepath.Join(r.imagesDir, landName)
	portPath := filepath.Join(r.imagesDir, portName)

	// Both downloads are attempted independently; one failing must not
	// block the other.
	if err := r.downloader.EnsureDownloaded(ctx, ad.LandscapeURL, landPath); err != nil {
		level.Warn(r.logger).Log("msg", "landscape download failed", "title", ad.Title, "err", err)
		assetDownloads.WithLabelValues("error").Inc()
	} else {
		assetDownloads.WithLabelValues("ok").Inc()
	}
	if err := r.downloader.EnsureDownloaded(ctx, ad.PortraitURL, portPath); err != nil {
		level.Warn(r.logger).Log("msg", "portrait download failed", "title", ad.Title, "err", err)
		assetDownloads.WithLabelValues("error").Inc()
	} else {
		assetDownloads.WithLabelValues("ok").Inc()
	}

	if !fileExists(landPath) || !fileExists(portPath) {
		level.Warn(r.logger).Log("msg", "dropping record, originals incomplete", "title", ad.Title)
		return nil
	}

	entry := &store.Entry{
		ID:            uuid.NewString(),
		Title:         ad.Title,
		Copyright:     ad.ResolveCopyright(),
		LandscapeURL:  ad.LandscapeURL,
		PortraitURL:   ad.PortraitURL,
		LandscapeFile: landName,
		PortraitFile:  portName,
		CreatedAt:     time.Now().UTC(),
	}

	// Transcoding is best effort: a failure only omits the compressed
	// filename, the original is still cached.
	landCompressed := transcode.CompressedName(landName, r.quality)
	if err := transcode.EnsureCompressed(landPath, filepath.Join(r.imagesDir, landCompressed), r.quality); err != nil {
		level.Warn(r.logger).Log("msg", "landscape transcode failed", "title", ad.Title, "err", err)
	} else {
		entry.LandscapeCompressedFile = landCompressed
	}
	portCompressed := transcode.CompressedName(portName, r.quality)
	if err := transcode.EnsureCompressed(portPath, filepath.Join(r.imagesDir, portCompressed), r.quality); err != nil {
		level.Warn(r.logger).Log("msg", "portrait transcode failed", "title", ad.Title, "err", err)
	} else {
		entry.PortraitCompressedFile = portCompressed
	}

	return entry
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// assetFilename derives a local filename from the URL's path component.
// Characters that are illegal in filenames become underscores; a URL
// that cannot yield a usable name gets a random one so a bad record
// never escapes the images directory.
func assetFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return randomFilename()
	}
	name := sanitizeFilename(path.Base(u.Path))
	if name == "" || name == "." || name == ".." {
		return randomFilename()
	}
	return name
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, name)
}

func randomFilename() string {
	return uuid.NewString() + ".jpg"
}
