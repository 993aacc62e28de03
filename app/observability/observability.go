package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	resultsmetrics "github.com/Black-And-White-Club/mtb-results/app/observability/metrics/results"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds the settings observability is built from.
type Config struct {
	ServiceName    string
	Environment    string
	Version        string
	LogLevel       string
	MetricsAddress string
}

// Provider owns the process-wide logging and metrics backends.
type Provider struct {
	Logger       *slog.Logger
	PromRegistry *prometheus.Registry
	metricsSrv   *http.Server
}

// Registry hands out the instruments modules record into.
type Registry struct {
	ResultsMetrics resultsmetrics.ResultsMetrics
	Tracer         trace.Tracer
}

// Observability bundles the provider and registry passed to modules.
type Observability struct {
	Provider *Provider
	Registry *Registry
}

// Init builds the logger, the prometheus registry and the tracer for the service.
func Init(ctx context.Context, cfg Config) (Observability, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "mtb-results"
	}

	logger := NewLogger(os.Stdout, cfg).With(
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := resultsmetrics.NewPrometheus(reg, "mtb_results")
	if err != nil {
		return Observability{}, fmt.Errorf("failed to register results metrics: %w", err)
	}

	provider := &Provider{
		Logger:       logger,
		PromRegistry: reg,
	}

	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.MetricsHandler())
		provider.metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.InfoContext(ctx, "Metrics server listening", slog.String("address", cfg.MetricsAddress))
			if err := provider.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("Metrics server stopped", slog.Any("error", err))
			}
		}()
	}

	return Observability{
		Provider: provider,
		Registry: &Registry{
			ResultsMetrics: metrics,
			Tracer:         otel.Tracer(cfg.ServiceName),
		},
	}, nil
}

// NewNoop returns observability that discards logs, metrics and spans.
func NewNoop() Observability {
	return Observability{
		Provider: &Provider{
			Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
			PromRegistry: prometheus.NewRegistry(),
		},
		Registry: &Registry{
			ResultsMetrics: resultsmetrics.NewNoop(),
			Tracer:         noop.NewTracerProvider().Tracer("noop"),
		},
	}
}

// MetricsHandler serves the provider's prometheus registry.
func (p *Provider) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(p.PromRegistry, promhttp.HandlerOpts{Registry: p.PromRegistry})
}

// Shutdown stops the standalone metrics server if one was started.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.metricsSrv == nil {
		return nil
	}
	return p.metricsSrv.Shutdown(ctx)
}

// NewLogger builds a slog logger. Production writes JSON, everything else writes text.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.Environment, "production") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a config string to a slog level. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
