// Command inference-server runs the Logical Inference MCP service over the
// streamable HTTP transport.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/latticerun/reasoning-mcp/internal/config"
	"github.com/latticerun/reasoning-mcp/internal/datalog"
	"github.com/latticerun/reasoning-mcp/internal/logging"
	"github.com/latticerun/reasoning-mcp/internal/mcpglue"
	"github.com/latticerun/reasoning-mcp/internal/session"
	"github.com/latticerun/reasoning-mcp/internal/storage"
)

const defaultBindAddress = "0.0.0.0:8081"

var (
	bindAddress string
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "inference-server",
	Short: "Logical Inference MCP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&bindAddress, "bind", "", "Address to listen on (overrides BIND_ADDRESS)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level DEBUG|INFO|WARN|ERROR (overrides LOG_LEVEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load(defaultBindAddress)
	if bindAddress != "" {
		cfg.BindAddress = bindAddress
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Output: os.Stderr,
	})

	hook := storage.New(cfg, logging.Logger)
	defer hook.Close()

	reg := session.NewInferenceRegistry()
	pool := datalog.NewPool(cfg.DatalogWorkerPoolSize)
	mcpServer := mcpglue.NewInferenceServer(reg, pool, hook)

	streamable := server.NewStreamableHTTPServer(mcpServer,
		server.WithHTTPContextFunc(mcpglue.HTTPContextFunc),
	)
	httpServer := &http.Server{
		Addr:    cfg.BindAddress,
		Handler: mcpglue.AuthStub(streamable),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info().Str("bind", cfg.BindAddress).Msg("logical inference service listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info().Msg("shutting down logical inference service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
