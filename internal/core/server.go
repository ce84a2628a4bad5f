package core

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routable is anything that can mount its endpoints on a chi router.
type Routable interface {
	RegisterRoutes(r chi.Router)
}

// NewRouter assembles the middleware chain and mounts the provider routes.
func NewRouter(log *slog.Logger, cfg *Config, p Routable) *chi.Mux {
	r := chi.NewRouter()

	r.Use(Recovery(log))
	r.Use(RequestLogger(log))
	r.Use(SecurityHeaders)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if cfg.HTTP.RateLimit > 0 {
		r.Use(NewRateLimiter(cfg.HTTP.RateLimit, time.Minute).Limit)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	p.RegisterRoutes(r)
	return r
}

// MountBlobDir serves archived face images from the local blob directory.
func MountBlobDir(r *chi.Mux, dir string) {
	fs := http.StripPrefix("/blobs/", http.FileServer(http.Dir(dir)))
	r.Get("/blobs/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}
