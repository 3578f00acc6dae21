// Package feed fetches and decodes the Windows Spotlight ad feed.
//
// The feed is a nested envelope: the outer document carries a list of
// items whose "item" field is itself a JSON-encoded string, which must
// be decoded a second time to reach the ad record. The double decode is
// part of the wire format and is preserved as-is.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

type Client struct {
	url    string
	client *http.Client
	logger log.Logger
}

func NewClient(url string, logger log.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Ad is one record from the feed. It is transient: the refresh pipeline
// turns it into a cache entry or drops it.
type Ad struct {
	LandscapeURL  string
	PortraitURL   string
	Copyright     string
	Title         string
	IconHoverText string
}

type envelope struct {
	BatchRsp struct {
		Items []struct {
			Item string `json:"item"`
		} `json:"items"`
	} `json:"batchrsp"`
}

type adItem struct {
	Ad struct {
		LandscapeImage struct {
			Asset string `json:"asset"`
		} `json:"landscapeImage"`
		PortraitImage struct {
			Asset string `json:"asset"`
		} `json:"portraitImage"`
		Copyright     string `json:"copyright"`
		Title         string `json:"title"`
		IconHoverText string `json:"iconHoverText"`
	} `json:"ad"`
}

// Fetch performs one GET against the feed URL and returns the decoded ad
// records. Items whose inner JSON is malformed or which lack either asset
// URL are skipped, not fatal. An envelope with zero items yields an empty
// slice and no error; callers must treat that as "no update".
func (c *Client) Fetch(ctx context.Context) ([]Ad, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching feed: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding feed envelope: %w", err)
	}

	ads := make([]Ad, 0, len(env.BatchRsp.Items))
	for i, it := range env.BatchRsp.Items {
		var inner adItem
		if err := json.Unmarshal([]byte(it.Item), &inner); err != nil {
			level.Warn(c.logger).Log("msg", "skipping malformed feed item", "index", i, "err", err)
			continue
		}
		ad := Ad{
			LandscapeURL:  inner.Ad.LandscapeImage.Asset,
			PortraitURL:   inner.Ad.PortraitImage.Asset,
			Copyright:     inner.Ad.Copyright,
			Title:         inner.Ad.Title,
			IconHoverText: inner.Ad.IconHoverText,
		}
		if ad.LandscapeURL == "" || ad.PortraitURL == "" {
			level.Warn(c.logger).Log("msg", "skipping feed item without both assets", "index", i, "title", ad.Title)
			continue
		}
		ads = append(ads, ad)
	}
	return ads, nil
}

// ResolveCopyright returns the ad's copyright text, falling back to the
// hover text when the primary field is blank. The hover text convention
// puts the attribution on its own line after the title, starting with
// the copyright glyph.
func (a Ad) ResolveCopyright() string {
	if a.Copyright != "" {
		return a.Copyright
	}
	lines := splitLines(a.IconHoverText)
	if len(lines) < 2 {
		return ""
	}
	second := strings.TrimSpace(lines[1])
	if strings.HasPrefix(second, "©") {
		return second
	}
	return ""
}

// splitLines splits on CRLF, LF, CR, and the escaped sequence "\r\n"
// that some feed payloads carry literally.
func splitLines(s string) []string {
	normalized := strings.NewReplacer(
		`\r\n`, "\n",
		"\r\n", "\n",
		"\r", "\n",
	).Replace(s)
	return strings.Split(normalized, "\n")
}
