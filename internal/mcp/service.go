package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/hybrid"
)

const defaultRememberTicks = 15

type Service struct {
	colony *colony.Colony
	engine *hybrid.Engine
	log    *slog.Logger
}

func NewService(c *colony.Colony, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		colony: c,
		engine: hybrid.New(c, logger),
		log:    logger.With("component", "mcp"),
	}
}

// --- Tool Handlers ---

func (s *Service) Remember(ctx context.Context, req *mcp.CallToolRequest, args RememberArgs) (*mcp.CallToolResult, RememberResult, error) {
	if args.Content == "" {
		return nil, RememberResult{}, fmt.Errorf("content must not be empty")
	}
	ticks := args.Ticks
	if ticks == 0 {
		ticks = defaultRememberTicks
	}

	before := s.colony.Stats()

	docID := s.colony.IngestDocument(args.Title, args.Content, core.Position{})
	s.colony.EnsureKind(core.KindDigester)

	if err := s.colony.Run(ctx, ticks); err != nil {
		return nil, RememberResult{}, fmt.Errorf("colony run: %w", err)
	}

	after := s.colony.Stats()
	s.log.Info("document remembered",
		"document_id", docID,
		"nodes_created", after.Nodes-before.Nodes,
		"edges_created", after.Edges-before.Edges,
		"tick", after.Tick)

	return nil, RememberResult{
		DocumentID:   string(docID),
		NodesCreated: after.Nodes - before.Nodes,
		EdgesCreated: after.Edges - before.Edges,
		Tick:         after.Tick,
	}, nil
}

func (s *Service) Recall(ctx context.Context, req *mcp.CallToolRequest, args RecallArgs) (*mcp.CallToolResult, RecallResult, error) {
	if args.Query == "" {
		return nil, RecallResult{}, fmt.Errorf("query must not be empty")
	}

	cfg := hybrid.DefaultConfig()
	if args.MaxResults > 0 {
		cfg.MaxResults = args.MaxResults
	}
	if args.Alpha != nil {
		cfg.Alpha = *args.Alpha
	}

	hits := s.engine.Query(args.Query, cfg)
	entries := make([]RecallEntry, 0, len(hits))
	for _, h := range hits {
		entries = append(entries, RecallEntry{
			Label:      h.Label,
			TFIDFScore: h.TFIDFScore,
			GraphScore: h.GraphScore,
			FinalScore: h.FinalScore,
		})
	}

	stats := s.colony.Stats()
	return nil, RecallResult{
		Results:    entries,
		TotalNodes: stats.Nodes,
		TotalEdges: stats.Edges,
	}, nil
}

func (s *Service) Explore(ctx context.Context, req *mcp.CallToolRequest, args ExploreArgs) (*mcp.CallToolResult, ExploreResult, error) {
	resp, err := s.engine.Explore(hybrid.ExploreRequest{
		Kind: hybrid.ExploreKind(args.Type),
		From: args.From,
		To:   args.To,
		TopK: args.TopK,
	})
	if err != nil {
		return nil, ExploreResult{}, err
	}

	out := ExploreResult{Type: string(resp.Kind)}
	if resp.Path != nil {
		out.Path = &ExplorePathEntry{Found: resp.Path.Found, Path: resp.Path.Path, Cost: resp.Path.Cost}
	}
	for _, c := range resp.Centrality {
		out.Centrality = append(out.Centrality, ExploreCentralityEntry{Label: c.Label, Centrality: c.Score})
	}
	for _, b := range resp.Bridges {
		out.Bridges = append(out.Bridges, ExploreBridgeEntry{Label: b.Label, Fragility: b.Fragility})
	}
	if resp.Stats != nil {
		out.Stats = &ExploreStatsEntry{
			TotalNodes:          resp.Stats.Nodes,
			TotalEdges:          resp.Stats.Edges,
			ConnectedComponents: resp.Stats.Components,
			Tick:                resp.Stats.Tick,
			AgentsAlive:         resp.Stats.AgentsAlive,
		}
	}
	return nil, out, nil
}
