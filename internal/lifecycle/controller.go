// Package lifecycle owns process-level startup and shutdown ordering: wiring
// the registry store, dispatcher, scanner, and worker pool together, and
// unwinding them in the right order on SIGINT/SIGTERM, with SIGHUP triggering
// a configuration reload instead of a shutdown.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"medialinkd/internal/config"
	"medialinkd/internal/log"
	"medialinkd/internal/registry"
	"medialinkd/internal/scanner"
	"medialinkd/internal/worker"
)

// Controller wires and runs the scanner and worker pool against a shared
// registry store, and owns the ordered shutdown on signal.
type Controller struct {
	Holder     *config.Holder
	Store      registry.Store
	Dispatcher *worker.Dispatcher
	Scanner    *scanner.Manager
	Pool       *worker.Pool
}

// Run blocks until SIGINT/SIGTERM arrives or ctx is cancelled. SIGHUP
// triggers Holder.Reload without stopping the pipeline.
func (c *Controller) Run(ctx context.Context) error {
	logger := log.WithComponent("lifecycle")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if err := c.Holder.WatchFile(gctx); err != nil {
		logger.Warn().Err(err).Msg("config file watcher failed to start, continuing without hot reload")
	}

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				logger.Info().Msg("received SIGHUP, reloading configuration")
				reloadCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
				err := c.Holder.Reload(reloadCtx)
				cancel()
				if err != nil {
					logger.Warn().Err(err).Msg("configuration reload failed, previous configuration remains active")
				}
			}
		}
	})

	g.Go(func() error {
		c.Scanner.Run(gctx)
		return nil
	})

	g.Go(func() error {
		c.Pool.Run(gctx)
		return nil
	})

	err := g.Wait()

	logger.Info().Msg("shutting down")
	c.Holder.Stop()
	c.Dispatcher.Close()
	if closeErr := c.Store.Close(); closeErr != nil {
		logger.Error().Err(closeErr).Msg("failed to close registry store")
	}
	logger.Info().Msg("shutdown complete")

	if err != nil {
		return fmt.Errorf("lifecycle: %w", err)
	}
	return nil
}
