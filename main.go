package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/Black-And-White-Club/mtb-results/app"
	"github.com/Black-And-White-Club/mtb-results/app/observability"
	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
	"github.com/Black-And-White-Club/mtb-results/config"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := app.WaitForShutdown(context.Background())
	defer stop()

	obs, err := observability.Init(ctx, config.ToObsConfig(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize observability: %v", err)
	}
	logger := obs.Provider.Logger

	application, err := app.NewApp(ctx, cfg, obs)
	if err != nil {
		logger.Error("Failed to initialize app", attr.Error(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("Application stopped with error", attr.Error(err))
		os.Exit(1)
	}

	if err := obs.Provider.Shutdown(context.Background()); err != nil {
		logger.Warn("Metrics server shutdown failed", attr.Error(err))
	}
}
