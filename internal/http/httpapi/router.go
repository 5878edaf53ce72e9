package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"studio/internal/http/handlers"
	"studio/internal/middleware"
)

// Options tune the middleware applied to the API router.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
}

// NewRouter assembles the chi router for the API server.
func NewRouter(app *handlers.App, logger zerolog.Logger, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/v1/generations", func(r chi.Router) {
			r.Post("/", app.Generate)
			r.Get("/", app.List)
			r.Get("/{job_id}", app.Status)
		})
		r.Get("/v1/credits", app.Credits)
	})

	return r
}
