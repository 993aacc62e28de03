package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/nats-io/nats.go/jetstream"
)

// ResultsStream holds every results.* subject.
var ResultsStream = jetstream.StreamConfig{
	Name:      "RESULTS",
	Subjects:  []string{"results.>"},
	Retention: jetstream.LimitsPolicy,
	MaxAge:    7 * 24 * time.Hour,
	Storage:   jetstream.FileStorage,
}

// InitializeStreams creates the JetStream streams at startup, adding missing subjects
// to streams that already exist.
func InitializeStreams(ctx context.Context, js jetstream.JetStream, logger *slog.Logger) error {
	for _, cfg := range []jetstream.StreamConfig{ResultsStream} {
		if err := ensureStream(ctx, js, cfg, logger); err != nil {
			return err
		}
	}
	return nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg jetstream.StreamConfig, logger *slog.Logger) error {
	stream, err := js.Stream(ctx, cfg.Name)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		if _, err := js.CreateStream(ctx, cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", cfg.Name, err)
		}
		logger.InfoContext(ctx, "Created JetStream stream", attr.String("stream", cfg.Name))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check stream %s: %w", cfg.Name, err)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info for %s: %w", cfg.Name, err)
	}

	missing := false
	for _, subject := range cfg.Subjects {
		if !slices.Contains(info.Config.Subjects, subject) {
			info.Config.Subjects = append(info.Config.Subjects, subject)
			missing = true
		}
	}
	if !missing {
		return nil
	}

	if _, err := js.UpdateStream(ctx, info.Config); err != nil {
		return fmt.Errorf("failed to update stream %s: %w", cfg.Name, err)
	}
	logger.InfoContext(ctx, "Stream updated with new subjects", attr.String("stream", cfg.Name))
	return nil
}
