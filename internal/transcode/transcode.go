// Package transcode re-encodes downloaded images at a configured
// quality to produce smaller variants alongside the originals.
package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// EnsureCompressed re-encodes the image at src into dest at the given
// JPEG quality (0-100). When dest already exists the call is a no-op.
// On decode or encode failure any partial dest is removed; src is never
// touched.
func EnsureCompressed(src, dest string, quality int) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", src, err)
	}

	if err := imaging.Save(img, dest, imaging.JPEGQuality(quality)); err != nil {
		os.Remove(dest)
		return fmt.Errorf("encoding %s: %w", dest, err)
	}
	return nil
}

// CompressedName derives the variant filename for an original, inserting
// a _q<quality> suffix before the extension: photo.jpg -> photo_q75.jpg.
func CompressedName(name string, quality int) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_q%d%s", base, quality, ext)
}
