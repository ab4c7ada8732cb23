// Package http provides the HTTP delivery layer for the URL shortener service.
// It contains the router, handlers, request and response schemas, and the
// middleware used to serve the public API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vadimbarashkov/shortcode/docs"
)

// Options tune the router.
type Options struct {
	// AllowedOrigins lists the origins allowed by CORS. Empty means any origin.
	AllowedOrigins []string
	// ValidShortCode reports whether a path segment can be an issued code.
	// When set, impossible codes are answered with 404 without a store lookup.
	ValidShortCode func(string) bool
}

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the URL shortener API.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts Options) *chi.Mux {
	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.Swagger)
	})

	r.Handle("/metrics", promhttp.Handler())

	validate := validator.New()
	h := newURLHandler(urlUseCase, validate, opts.ValidShortCode)

	r.Get("/", handleRoot)
	r.Get("/ping", handlePing)
	r.Get("/healthz", h.healthz)
	r.Post("/shorten", h.shortenURL)
	r.Get("/stats/{shortCode}", h.getURLStats)
	r.Get("/{shortCode}", h.resolveShortCode)

	return r
}
