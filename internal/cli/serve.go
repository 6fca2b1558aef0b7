package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	phagomcp "github.com/clemens865/phago/internal/mcp"
	"github.com/clemens865/phago/internal/storage"
	"github.com/clemens865/phago/pkg/colony"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the colony as an MCP tool server over stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()

	store, err := storage.New(cfg.StorageKind, cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	c, err := colony.Open(cfg.ColonyOptions(logger))
	if err != nil {
		return fmt.Errorf("open colony: %w", err)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// resume from the last session if a snapshot exists
	snap, err := store.Load(ctx)
	switch {
	case err == nil:
		c.Restore(snap)
		logger.Info("snapshot restored", "tick", snap.Tick,
			"nodes", len(snap.Nodes), "edges", len(snap.Edges))
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("starting fresh colony")
	default:
		return fmt.Errorf("load snapshot: %w", err)
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("metrics listener", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	server := phagomcp.NewMCPServer(c, logger)
	logger.Info("phago MCP server on stdio", "version", phagomcp.Version)

	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}

	saveCtx := context.Background()
	if err := store.Save(saveCtx, c.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("snapshot saved", "path", cfg.StoragePath)
	return nil
}
