// Package attr provides the slog attribute helpers shared by services and handlers.
package attr

import (
	"context"
	"log/slog"
	"time"
)

type correlationIDKey struct{}

// WithCorrelationID stores id on the context so log lines of one request can be joined.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationID returns the id stored by WithCorrelationID, or "".
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// ExtractCorrelationID returns the correlation id as an attribute. It is empty
// (and dropped by slog) when the context has none.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	id := CorrelationID(ctx)
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("correlation_id", id)
}

func String(key, value string) slog.Attr { return slog.String(key, value) }

func Int(key string, value int) slog.Attr { return slog.Int(key, value) }

func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }

func Bool(key string, value bool) slog.Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) slog.Attr { return slog.Duration(key, value) }

func Any(key string, value any) slog.Attr { return slog.Any(key, value) }

// Error logs err under "error"; a nil error yields an empty attribute.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// ReportID tags log lines with a report identifier.
func ReportID(id string) slog.Attr { return slog.String("report_id", id) }
