package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clemens865/phago/internal/storage"
	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/hybrid"
	"github.com/clemens865/phago/pkg/rag"
)

var (
	runExtraTicks uint64
	runQuery      string
)

var runCmd = &cobra.Command{
	Use:   "run <documents-dir>",
	Short: "Digest a directory of documents in batch and save the grown graph",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	runCmd.Flags().Uint64Var(&runExtraTicks, "extra-ticks", 0, "additional consolidation ticks after digestion")
	runCmd.Flags().StringVar(&runQuery, "query", "", "run a hybrid query against the grown graph and print the results")
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	if snap, err := store.Load(ctx); err == nil {
		c.Restore(snap)
		logger.Info("snapshot restored", "tick", snap.Tick)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load snapshot: %w", err)
	}

	ingestor := rag.NewIngestor(c, cfg.IngestOptions(), logger)
	report, err := ingestor.IngestDir(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingest %s: %w", args[0], err)
	}

	if runExtraTicks > 0 {
		if err := c.Run(ctx, runExtraTicks); err != nil {
			return fmt.Errorf("consolidation: %w", err)
		}
	}

	stats := c.Stats()
	fmt.Printf("digested %d files (%d chunks) in %d ticks\n", report.Files, report.Chunks, stats.Tick)
	fmt.Printf("graph: %d nodes, %d edges, %d agents alive, generation %d\n",
		stats.Nodes, stats.Edges, stats.AgentsAlive, stats.MaxGeneration)

	if runQuery != "" {
		engine := hybrid.New(c, logger)
		for i, r := range engine.Query(runQuery, cfg.HybridConfig()) {
			fmt.Printf("%2d. %-30s final=%.3f (tfidf=%.3f graph=%.3f)\n",
				i+1, r.Label, r.FinalScore, r.TFIDFScore, r.GraphScore)
		}
	}

	if err := store.Save(context.Background(), c.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	logger.Info("snapshot saved", "path", cfg.StoragePath)
	return nil
}
