package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/basalt-run/agentkit/internal/httpapi"
	"github.com/spf13/cobra"
)

// buildServeCmd creates the "serve" command: run the HTTP surface of
// spec §4.6/§6 until an interrupt or terminate signal arrives.
func buildServeCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := loadAgent(configPath)
			if err != nil {
				return err
			}

			if host != "" {
				agent.cfg.Server.Host = host
			}
			if port != 0 {
				agent.cfg.Server.Port = port
			}

			httpapi.Version = version
			server := httpapi.NewServer(agent.loop, agent.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serveUntilShutdown(ctx, agent, server.Mux())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "agent.toml", "Path to agent configuration file")
	cmd.Flags().StringVar(&host, "host", "", "Override server.host from config")
	cmd.Flags().IntVar(&port, "port", 0, "Override server.port from config")
	return cmd
}

func serveUntilShutdown(ctx context.Context, agent *loadedAgent, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", agent.cfg.Server.Host, agent.cfg.Server.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	agent.logger.Info(ctx, "starting http server", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			agent.logger.Warn(ctx, "http server shutdown error", "error", err)
			return err
		}
		agent.logger.Info(ctx, "http server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
