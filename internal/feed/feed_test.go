package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
)

func feedServer(t *testing.T, items []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type item struct {
			Item string `json:"item"`
		}
		wrapped := make([]item, len(items))
		for i, it := range items {
			wrapped[i] = item{Item: it}
		}
		resp := map[string]any{"batchrsp": map[string]any{"items": wrapped}}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func adJSON(t *testing.T, landscape, portrait, copyright, title, hover string) string {
	t.Helper()
	inner := map[string]any{
		"ad": map[string]any{
			"landscapeImage": map[string]any{"asset": landscape},
			"portraitImage":  map[string]any{"asset": portrait},
			"copyright":      copyright,
			"title":          title,
			"iconHoverText":  hover,
		},
	}
	b, err := json.Marshal(inner)
	if err != nil {
		t.Fatalf("marshaling ad: %v", err)
	}
	return string(b)
}

func TestFetchDecodesEnvelope(t *testing.T) {
	srv := feedServer(t, []string{
		adJSON(t, "https://img.example.com/a_land.jpg", "https://img.example.com/a_port.jpg", "© A", "Ad A", ""),
		adJSON(t, "https://img.example.com/b_land.jpg", "https://img.example.com/b_port.jpg", "© B", "Ad B", ""),
	})

	c := NewClient(srv.URL, log.NewNopLogger())
	ads, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(ads) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(ads))
	}
	if ads[0].Title != "Ad A" || ads[1].Title != "Ad B" {
		t.Errorf("feed order not preserved: %q, %q", ads[0].Title, ads[1].Title)
	}
	if ads[0].LandscapeURL != "https://img.example.com/a_land.jpg" {
		t.Errorf("landscape url: got %q", ads[0].LandscapeURL)
	}
}

func TestFetchSkipsMalformedItem(t *testing.T) {
	srv := feedServer(t, []string{
		"{not valid json",
		adJSON(t, "https://img.example.com/land.jpg", "https://img.example.com/port.jpg", "", "Good", ""),
	})

	c := NewClient(srv.URL, log.NewNopLogger())
	ads, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(ads) != 1 {
		t.Fatalf("expected 1 ad after skipping malformed item, got %d", len(ads))
	}
	if ads[0].Title != "Good" {
		t.Errorf("wrong ad survived: %q", ads[0].Title)
	}
}

func TestFetchSkipsMissingAssets(t *testing.T) {
	srv := feedServer(t, []string{
		adJSON(t, "https://img.example.com/land.jpg", "", "", "No portrait", ""),
		adJSON(t, "", "https://img.example.com/port.jpg", "", "No landscape", ""),
	})

	c := NewClient(srv.URL, log.NewNopLogger())
	ads, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(ads) != 0 {
		t.Fatalf("expected 0 ads, got %d", len(ads))
	}
}

func TestFetchEmptyFeed(t *testing.T) {
	srv := feedServer(t, nil)

	c := NewClient(srv.URL, log.NewNopLogger())
	ads, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch on empty feed should not error, got: %v", err)
	}
	if len(ads) != 0 {
		t.Fatalf("expected empty slice, got %d ads", len(ads))
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, log.NewNopLogger())
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestResolveCopyright(t *testing.T) {
	tests := []struct {
		name      string
		copyright string
		hover     string
		want      string
	}{
		{"primary wins", "© Primary", "Title\n© Hover", "© Primary"},
		{"fallback newline", "", "Title line\n© 2024 Example Corp", "© 2024 Example Corp"},
		{"fallback crlf", "", "Title line\r\n© 2024 Example Corp", "© 2024 Example Corp"},
		{"fallback cr", "", "Title line\r© 2024 Example Corp", "© 2024 Example Corp"},
		{"fallback escaped crlf", "", `Title line\r\n© 2024 Example Corp`, "© 2024 Example Corp"},
		{"second line trimmed", "", "Title\n  © Trimmed  ", "© Trimmed"},
		{"no second line", "", "Just a title", ""},
		{"second line without glyph", "", "Title\nnot a copyright", ""},
		{"empty hover", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ad := Ad{Copyright: tt.copyright, IconHoverText: tt.hover}
			if got := ad.ResolveCopyright(); got != tt.want {
				t.Errorf("ResolveCopyright() = %q, want %q", got, tt.want)
			}
		})
	}
}
