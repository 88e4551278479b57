package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/j-veylop/inspectro-tui/internal/logger"
	"github.com/j-veylop/inspectro-tui/internal/proxy"
	"github.com/j-veylop/inspectro-tui/internal/server"
	"github.com/j-veylop/inspectro-tui/internal/services"
)

const (
	cleanupInterval = 6 * time.Hour
	shutdownTimeout = 10 * time.Second
)

var errRemoteMode = errors.New("USAGE_API_URL is set: this instance reads from a remote server and cannot record usage")

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the metering proxy and the usage API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logCloser, err := setup(false)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if addr != "" {
				cfg.ListenAddr = addr
			}
			if cfg.RemoteURL != "" {
				return errRemoteMode
			}

			mgr, err := services.NewManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer func() {
				if err := mgr.Close(); err != nil {
					logger.Error("failed to close services", "error", err)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, mgr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	return cmd
}

// serve runs the HTTP server until ctx is done, pruning old usage in the
// background.
func serve(ctx context.Context, mgr *services.Manager) error {
	srv := server.New(server.Options{
		Addr:      mgr.Config().ListenAddr,
		Usage:     mgr.Database(),
		Dashboard: mgr.Dashboard(),
		Catalog:   mgr.Database(),
		Proxy:     proxy.New(mgr.CatalogService(), mgr.Recorder(), server.ProxyPrefix),
	})

	go runCleanup(ctx, mgr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return <-errCh
}

func runCleanup(ctx context.Context, mgr *services.Manager) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := mgr.Cleanup(ctx); err != nil {
			logger.Error("usage cleanup failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func newCleanupCmd() *cobra.Command {
	var vacuum bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete usage older than USAGE_RETENTION_DAYS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logCloser, err := setup(false)
			if err != nil {
				return err
			}
			defer logCloser.Close()

			if cfg.RemoteURL != "" {
				return errRemoteMode
			}

			mgr, err := services.NewManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer mgr.Close()

			n, err := mgr.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d usage rows\n", n)

			if vacuum {
				if err := mgr.Database().Vacuum(cmd.Context()); err != nil {
					return fmt.Errorf("failed to vacuum database: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&vacuum, "vacuum", false, "compact the database afterwards")
	return cmd
}
