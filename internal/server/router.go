package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"blkd/internal/config"
	"blkd/internal/inventory"
	"blkd/internal/observability"
	"blkd/pkg/blkdev"
)

const version = "0.1.0"

func Logger(cfg config.Config) *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := log.Logger.Level(cfg.LogLevel).With().Timestamp().Logger()
	return &logger
}

// collector is what the handlers need from the acquisition side; the real
// implementation is inventory.Scanner.
type collector interface {
	Collect(ctx context.Context) (*blkdev.Collection, error)
}

func NewRouter(cfg config.Config) http.Handler {
	scanner := inventory.NewScanner(cfg.LsblkPath, cfg.LsblkTimeout, *Logger(cfg))
	return newRouter(cfg, scanner)
}

func newRouter(cfg config.Config, src collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(zerologMiddleware(Logger(cfg)))

	if cfg.CORSOrigin != "" {
		c := cors.New(cors.Options{
			AllowedOrigins: []string{cfg.CORSOrigin},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		})
		r.Use(c.Handler)
	}

	metrics := observability.New()
	h := &devicesHandler{src: src, metrics: metrics}

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true, "version": version})
	})
	r.Route("/api/v1/devices", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/system", h.system)
		r.Get("/non-system", h.nonSystem)
		r.Get("/{name}", h.get)
		r.Get("/{name}/usage", h.usage)
	})
	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
