// Package server exposes the cache over HTTP: a liveness line, the
// entry list as JSON, the cached image files, and Prometheus metrics.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/megabytesme/SpotlightCacheService/internal/store"
)

type Server struct {
	store     *store.Store
	imagesDir string
	logger    log.Logger
}

func New(s *store.Store, imagesDir string, logger log.Logger) *Server {
	return &Server{store: s, imagesDir: imagesDir, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(instrument)
	r.NewRoute().Name("Root").Methods("GET").Path("/").HandlerFunc(s.root)
	r.NewRoute().Name("SpotlightData").Methods("GET").Path("/api/spotlight-data").HandlerFunc(s.spotlightData)
	r.NewRoute().Name("CachedImages").Methods("GET").PathPrefix("/api/cached-images/").Handler(
		http.StripPrefix("/api/cached-images/", http.FileServer(http.Dir(s.imagesDir))))
	r.Path("/metrics").Handler(promhttp.Handler())
	return r
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Spotlight cache service is running.")
}

func (s *Server) spotlightData(w http.ResponseWriter, r *http.Request) {
	entries := s.store.Snapshot()
	if entries == nil {
		// A cold cache is a valid, empty response, not an error.
		entries = []store.Entry{}
	}

	body, err := json.Marshal(entries)
	if err != nil {
		level.Error(s.logger).Log("msg", "encoding spotlight data failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to encode cache entries")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(body)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
