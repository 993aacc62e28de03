package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Black-And-White-Club/mtb-results/app/observability/attr"
)

// Run starts the modules, the bus router and the HTTP server, then blocks until ctx is
// cancelled and shuts everything down.
func (app *App) Run(ctx context.Context) error {
	app.wg.Add(1)
	go app.Modules.ResultsModule.Run(ctx, &app.wg)

	routerErr := make(chan error, 1)
	go func() {
		routerErr <- app.Router.Run(ctx)
	}()

	select {
	case <-app.Router.Running():
	case err := <-routerErr:
		_ = app.Close()
		return fmt.Errorf("watermill router stopped: %w", err)
	}

	app.server = &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.HTTPRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", attr.String("address", app.server.Addr))
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server failed: %w", err)
		}
	case err := <-routerErr:
		if err != nil {
			runErr = fmt.Errorf("watermill router stopped: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error("HTTP server shutdown failed", attr.Error(err))
	}

	if err := app.Close(); err != nil {
		return err
	}
	return runErr
}
