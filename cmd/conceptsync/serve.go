package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/synaptica-ai/conceptsync/pkg/common/config"
	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
	"github.com/synaptica-ai/conceptsync/pkg/syncapi"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the import API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			handler := syncapi.NewHTTPHandler(a.runner, cfg.MaxRequestBody)
			server := &http.Server{
				Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
				Handler:      syncapi.NewRouter(handler),
				ReadTimeout:  cfg.ReadTimeout,
				WriteTimeout: cfg.WriteTimeout,
				IdleTimeout:  120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Log.WithFields(map[string]interface{}{
					"host": cfg.ServerHost,
					"port": cfg.ServerPort,
				}).Info("Concept sync API started")

				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			logger.Log.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			logger.Log.Info("Server exited")
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.ServerPort, "port", cfg.ServerPort, "listen port")
	return cmd
}
