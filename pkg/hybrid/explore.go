package hybrid

import (
	"fmt"
	"time"

	"github.com/clemens865/phago/pkg/metrics"
	"github.com/clemens865/phago/pkg/topology"
)

// ExploreKind selects a structural query.
type ExploreKind string

const (
	ExplorePath       ExploreKind = "path"
	ExploreCentrality ExploreKind = "centrality"
	ExploreBridges    ExploreKind = "bridges"
	ExploreStats      ExploreKind = "stats"
)

// centralitySamples is the pair-sample budget for betweenness.
const centralitySamples = 100

// ExploreRequest is a typed structural query. From/To apply to path
// requests; TopK to centrality and bridge requests.
type ExploreRequest struct {
	Kind ExploreKind `json:"type"`
	From string      `json:"from,omitempty"`
	To   string      `json:"to,omitempty"`
	TopK int         `json:"top_k,omitempty"`
}

// PathResult reports a shortest-path lookup. Found is false for
// unknown labels or disconnected endpoints; that is a result, not an
// error.
type PathResult struct {
	Found bool     `json:"found"`
	Path  []string `json:"path"`
	Cost  float64  `json:"cost"`
}

// CentralityEntry is one row of a betweenness ranking.
type CentralityEntry struct {
	Label string  `json:"label"`
	Score float64 `json:"centrality"`
}

// BridgeEntry is one row of a bridge-node ranking.
type BridgeEntry struct {
	Label     string  `json:"label"`
	Fragility float64 `json:"fragility"`
}

// StatsResult summarizes graph and colony shape.
type StatsResult struct {
	Nodes       int    `json:"total_nodes"`
	Edges       int    `json:"total_edges"`
	Components  int    `json:"connected_components"`
	Tick        uint64 `json:"tick"`
	AgentsAlive int    `json:"agents_alive"`
}

// ExploreResponse carries exactly the field matching the request
// kind.
type ExploreResponse struct {
	Kind       ExploreKind       `json:"type"`
	Path       *PathResult       `json:"path,omitempty"`
	Centrality []CentralityEntry `json:"centrality,omitempty"`
	Bridges    []BridgeEntry     `json:"bridges,omitempty"`
	Stats      *StatsResult      `json:"stats,omitempty"`
}

// Explore dispatches a structural query. The only error is an
// unknown request kind; empty and not-found outcomes are results.
func (e *Engine) Explore(req ExploreRequest) (ExploreResponse, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
	}()

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	switch req.Kind {
	case ExplorePath:
		resp := ExploreResponse{Kind: ExplorePath, Path: &PathResult{Path: []string{}}}
		e.colony.WithGraph(func(g *topology.Graph) {
			fromIDs := g.FindByLabel(req.From)
			toIDs := g.FindByLabel(req.To)
			if len(fromIDs) == 0 || len(toIDs) == 0 {
				return
			}
			hops, cost, ok := g.ShortestPath(fromIDs[0], toIDs[0])
			if !ok {
				return
			}
			labels := make([]string, 0, len(hops))
			for _, id := range hops {
				if n, ok := g.GetNode(id); ok {
					labels = append(labels, n.Label)
				}
			}
			resp.Path = &PathResult{Found: true, Path: labels, Cost: cost}
		})
		return resp, nil

	case ExploreCentrality:
		entries := make([]CentralityEntry, 0, topK)
		e.colony.WithGraph(func(g *topology.Graph) {
			for _, s := range g.BetweennessCentrality(centralitySamples) {
				if len(entries) >= topK {
					break
				}
				if n, ok := g.GetNode(s.ID); ok {
					entries = append(entries, CentralityEntry{Label: n.Label, Score: s.Score})
				}
			}
		})
		return ExploreResponse{Kind: ExploreCentrality, Centrality: entries}, nil

	case ExploreBridges:
		var entries []BridgeEntry
		e.colony.WithGraph(func(g *topology.Graph) {
			bridges := g.BridgeNodes(topK)
			entries = make([]BridgeEntry, 0, len(bridges))
			for _, b := range bridges {
				if n, ok := g.GetNode(b.ID); ok {
					entries = append(entries, BridgeEntry{Label: n.Label, Fragility: b.Fragility})
				}
			}
		})
		return ExploreResponse{Kind: ExploreBridges, Bridges: entries}, nil

	case ExploreStats:
		stats := e.colony.Stats()
		return ExploreResponse{Kind: ExploreStats, Stats: &StatsResult{
			Nodes:       stats.Nodes,
			Edges:       stats.Edges,
			Components:  stats.Components,
			Tick:        stats.Tick,
			AgentsAlive: stats.AgentsAlive,
		}}, nil
	}
	return ExploreResponse{}, fmt.Errorf("hybrid: unknown explore kind %q", req.Kind)
}
