// Package hybrid is the read-side query engine: lexical candidate
// generation with graph-structural re-ranking, plus the typed
// structural queries (paths, centrality, bridges, stats).
//
// The graph never originates candidates. It only reorders
// lexically-plausible ones, so a strongly connected but textually
// irrelevant node cannot surface.
package hybrid

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/metrics"
	"github.com/clemens865/phago/pkg/textanalyzer"
	"github.com/clemens865/phago/pkg/topology"
)

// Config tunes a hybrid query.
type Config struct {
	// Alpha mixes the two score families: 1 is pure lexical, 0 is
	// pure graph.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// MaxResults bounds the returned ranking.
	MaxResults int `json:"max_results" yaml:"max_results"`
	// CandidateMultiplier sizes the lexical candidate pool as a
	// multiple of MaxResults before re-ranking.
	CandidateMultiplier int `json:"candidate_multiplier" yaml:"candidate_multiplier"`
}

// DefaultConfig returns the standard query configuration.
func DefaultConfig() Config {
	return Config{Alpha: 0.5, MaxResults: 10, CandidateMultiplier: 3}
}

// Result is one ranked node.
type Result struct {
	NodeID     core.NodeID `json:"node_id"`
	Label      string      `json:"label"`
	TFIDFScore float64     `json:"tfidf_score"`
	GraphScore float64     `json:"graph_score"`
	FinalScore float64     `json:"final_score"`
}

// Engine answers queries over a colony's graph. It holds no state of
// its own; every read runs inside colony.WithGraph so it observes the
// graph strictly between ticks.
type Engine struct {
	colony *colony.Colony
	log    *slog.Logger
}

// New returns a query engine over the colony.
func New(c *colony.Colony, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{colony: c, log: logger.With("component", "hybrid")}
}

// Query runs a hybrid query: tf-idf candidates, graph re-rank, and an
// alpha-weighted blend.
func (e *Engine) Query(text string, cfg Config) []Result {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.WithLabelValues("hybrid").Observe(time.Since(start).Seconds())
	}()

	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig().MaxResults
	}
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = DefaultConfig().CandidateMultiplier
	}
	if cfg.Alpha < 0 {
		cfg.Alpha = 0
	}
	if cfg.Alpha > 1 {
		cfg.Alpha = 1
	}

	terms := textanalyzer.Terms(text)
	if len(terms) == 0 {
		return nil
	}

	var results []Result
	var poolSize int
	e.colony.WithGraph(func(g *topology.Graph) {
		idx := buildIndex(g)

		// Lexical candidate generation.
		type candidate struct {
			id  core.NodeID
			raw float64
		}
		var candidates []candidate
		for id := range idx.docs {
			if s := idx.score(id, terms); s > 0 {
				candidates = append(candidates, candidate{id, s})
			}
		}
		if len(candidates) == 0 {
			return
		}
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].raw != candidates[j].raw {
				return candidates[i].raw > candidates[j].raw
			}
			return candidates[i].id < candidates[j].id
		})
		pool := cfg.MaxResults * cfg.CandidateMultiplier
		if len(candidates) > pool {
			candidates = candidates[:pool]
		}
		poolSize = len(candidates)

		// Normalize lexical scores into [0,1] inside the pool so alpha
		// weighs two comparable quantities.
		maxRaw := candidates[0].raw

		results = make([]Result, 0, len(candidates))
		for _, c := range candidates {
			node, ok := g.GetNode(c.id)
			if !ok {
				continue
			}
			r := Result{
				NodeID:     c.id,
				Label:      node.Label,
				TFIDFScore: c.raw / maxRaw,
				GraphScore: graphScore(g, c.id, node.AccessCount),
			}
			r.FinalScore = cfg.Alpha*r.TFIDFScore + (1-cfg.Alpha)*r.GraphScore
			results = append(results, r)
		}
	})
	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FinalScore != results[j].FinalScore {
			return results[i].FinalScore > results[j].FinalScore
		}
		if results[i].TFIDFScore != results[j].TFIDFScore {
			return results[i].TFIDFScore > results[j].TFIDFScore
		}
		return results[i].NodeID < results[j].NodeID
	})
	if len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}
	e.log.Debug("hybrid query",
		"terms", len(terms),
		"candidates", poolSize,
		"results", len(results),
		"alpha", cfg.Alpha)
	return results
}

// graphScore combines structural evidence that a node matters:
// strongest incident edge, co-activation depth, degree, and access
// history. Clamped to [0,1].
func graphScore(g *topology.Graph, id core.NodeID, access uint64) float64 {
	edges := g.IncidentEdges(id)

	var maxWeight float64
	var maxCo uint64
	for _, edge := range edges {
		if edge.Weight > maxWeight {
			maxWeight = edge.Weight
		}
		if edge.CoActivations > maxCo {
			maxCo = edge.CoActivations
		}
	}
	degree := math.Min(float64(len(edges))/10.0, 1.0)
	accessed := math.Min(float64(access)/10.0, 1.0)

	score := 0.4*maxWeight + 0.1*math.Log(1.0+float64(maxCo)) + 0.2*degree + 0.3*accessed
	return math.Min(math.Max(score, 0), 1)
}
