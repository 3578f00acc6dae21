package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/megabytesme/SpotlightCacheService/internal/config"
	"github.com/megabytesme/SpotlightCacheService/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		st := store.New(cfg.CacheFile(), log.NewNopLogger())
		if err := st.Load(); err != nil {
			return fmt.Errorf("loading cache: %w", err)
		}

		files, size, err := imageStats(cfg.ImagesDir())
		if err != nil {
			return fmt.Errorf("reading image dir: %w", err)
		}

		fmt.Printf("Cache file: %s\n", cfg.CacheFile())
		fmt.Printf("Entries: %d\n", st.Len())
		fmt.Printf("Images: %d file(s), %s\n", files, formatBytes(size))
		return nil
	},
}

func imageStats(dir string) (int, int64, error) {
	var (
		files int
		size  int64
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, 0, nil
	}
	return files, size, err
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
