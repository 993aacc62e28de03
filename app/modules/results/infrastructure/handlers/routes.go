package resultshandlers

import (
	"net/http"

	"github.com/Black-And-White-Club/mtb-results/pkg/jwt"
	"github.com/go-chi/chi/v5"
)

// RouteOptions configures the middleware around the results API.
type RouteOptions struct {
	AllowedOrigins []string
	Limiter        *IPRateLimiter
	MaxBodyBytes   int64
	// Tokens guards the write routes; nil leaves them open.
	Tokens jwt.Service
	// Live serves the websocket feed at /api/live when set.
	Live http.Handler
}

// RegisterRoutes mounts the results API under /api.
func RegisterRoutes(httpRouter chi.Router, h Handlers, opts RouteOptions) {
	httpRouter.Route("/api", func(r chi.Router) {
		r.Use(CORSMiddleware(opts.AllowedOrigins))
		if opts.Limiter != nil {
			r.Use(RateLimitMiddleware(opts.Limiter))
		}
		r.Use(MaxBytesMiddleware(opts.MaxBodyBytes))

		// Public routes
		r.Post("/parse", h.HandleParse)
		r.Get("/reports", h.HandleListReports)
		r.Get("/reports/{reportID}", h.HandleGetReport)
		r.Get("/reports/{reportID}/results", h.HandleListResults)
		r.Get("/reports/{reportID}/export.{format}", h.HandleExport)
		r.Get("/reports/{reportID}/charts", h.HandleChart)
		if opts.Live != nil {
			r.Get("/live", opts.Live.ServeHTTP)
		}

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(opts.Tokens))
			r.Post("/reports", h.HandleImport)
			r.Delete("/reports/{reportID}", h.HandleDeleteReport)
		})
	})
}
