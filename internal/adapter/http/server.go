package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/streams-chart-etl/internal/chart"
	"github.com/couchcryptid/streams-chart-etl/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SnapshotSource returns the most recent successful snapshot.
type SnapshotSource interface {
	LatestSnapshot() (domain.Snapshot, bool)
}

// Server exposes health, readiness, metrics, chart images and the latest
// snapshot over HTTP.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotSource
	chartDir   string
	logger     *slog.Logger
}

// NewServer creates an HTTP server. Charts are served from chartDir.
func NewServer(addr string, ready ReadinessChecker, snapshots SnapshotSource, chartDir string, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		chartDir:  chartDir,
		logger:    logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/charts/{name}", s.handleChart)
	r.Route("/api", func(r chi.Router) {
		r.Get("/songs", s.handleSongs)
		r.Get("/stats", s.handleStats)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !slices.Contains(chart.Files, name) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown chart"})
		return
	}
	path := filepath.Join(s.chartDir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "chart not rendered yet"})
			return
		}
		s.logger.Error("stat chart", "path", path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chart unavailable"})
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

type songsResponse struct {
	CapturedOn string            `json:"captured_on"`
	Columns    []string          `json:"columns"`
	Count      int               `json:"count"`
	Songs      []json.RawMessage `json:"songs"`
}

func (s *Server) handleSongs(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshots.LatestSnapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}

	resp := songsResponse{
		CapturedOn: snap.CapturedOn.Format(domain.DateLayout),
		Columns:    snap.Columns(),
		Count:      len(snap.Songs),
		Songs:      make([]json.RawMessage, 0, len(snap.Songs)),
	}
	for _, song := range snap.Songs {
		out, err := domain.SerializeSong(song, snap.ExtraColumns)
		if err != nil {
			s.logger.Error("serialize song", "id", song.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "serialize failed"})
			return
		}
		resp.Songs = append(resp.Songs, out.Value)
	}
	writeJSON(w, http.StatusOK, resp)
}

type statsResponse struct {
	CapturedOn   string  `json:"captured_on"`
	NumericRows  int     `json:"numeric_rows"`
	TotalStreams float64 `json:"total_streams_billions"`
	MeanStreams  float64 `json:"mean_streams_billions"`
	TopTitle     string  `json:"top_title"`
	TopArtist    string  `json:"top_artist"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.snapshots.LatestSnapshot()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot yet"})
		return
	}
	st, err := domain.ComputeStats(snap.Songs)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		CapturedOn:   snap.CapturedOn.Format(domain.DateLayout),
		NumericRows:  st.Count,
		TotalStreams: st.Total,
		MeanStreams:  st.Mean,
		TopTitle:     st.Top.Title,
		TopArtist:    st.Top.Artist,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
