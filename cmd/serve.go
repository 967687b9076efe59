package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tilemart/tileadmin/internal/handlers"
	"github.com/tilemart/tileadmin/internal/images"
	"github.com/tilemart/tileadmin/internal/notify"
)

func newServeCmd(env *environment) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local JSON API for reviewing drafts",
		Long: `Starts a local review API over the draft workspace on the specified port.

The API lets a browser front end upload files, edit and remove drafts, add
existing designs and commit. The seller is read from the seller_id cookie
and falls back to --seller.`,
		Example: `  # Start server on default port 8888
  tileadmin serve

  # Start server on custom port
  tileadmin serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			center := notify.New()
			notifications, unsubscribe := center.Subscribe()
			defer unsubscribe()
			go notify.Log(cmd.Context(), notifications)

			handler := handlers.New(handlers.Options{
				Backend:       env.client,
				Workspace:     env.workspace,
				WorkspacePath: env.cfg.Workspace,
				Sellers:       env.sellers(),
				Notifier:      center,
				Preflight:     images.Preflight{MaxDimension: env.cfg.MaxDimension},
				ImageBase:     env.cfg.APIBaseURL,
			})

			// Set up routes
			mux := http.NewServeMux()
			handler.Routes(mux)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Draft review API available", "addr", addr, "url", "http://localhost"+addr, "api", env.cfg.APIBaseURL)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8888", "Port to listen on")

	return cmd
}
