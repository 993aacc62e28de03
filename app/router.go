package app

import (
	"context"
	"net/http"
	"time"

	resultshandlers "github.com/Black-And-White-Club/mtb-results/app/modules/results/infrastructure/handlers"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// newHTTPRouter builds the root chi router with the health and metrics endpoints.
// Modules mount their own routes on it.
func (app *App) newHTTPRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(resultshandlers.CorrelationIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", app.handleHealth)
	r.Handle("/metrics", app.Observability.Provider.MetricsHandler())

	return r
}

// handleHealth checks the database, the event bus and the queue.
func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error { return app.DB.GetDB().PingContext(ctx) },
		"eventbus": func(context.Context) error { return app.EventBus.Healthy() },
	}
	if m := app.Modules.ResultsModule; m != nil {
		checks["queue"] = m.HealthCheck
	}

	for name, check := range checks {
		if err := check(ctx); err != nil {
			app.Logger.WarnContext(ctx, "Health check failed",
				attr.ExtractCorrelationID(ctx),
				attr.String("check", name),
				attr.Error(err),
			)
			http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
