package main

import (
	"context"
	"fmt"

	"go.uber.org/fx"
)

// run starts the service and blocks until a signal arrives or a component
// asks for shutdown.
func run(ctx context.Context, app *fx.App) error {
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		if sig.ExitCode != 0 {
			_ = app.Stop(context.Background())
			return fmt.Errorf("application stopped with exit code %d", sig.ExitCode)
		}
	}

	if err := app.Stop(context.Background()); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
