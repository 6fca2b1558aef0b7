package hybrid

import (
	"testing"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
)

// bridgeColony builds two triangles joined through a single hub, the
// classic cut-vertex shape.
func bridgeColony(t *testing.T) *colony.Colony {
	t.Helper()
	c, err := colony.Open(colony.Options{Seed: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	g := c.Graph()
	labels := []string{"alpha", "beta", "hub", "gamma", "delta"}
	ids := make(map[string]core.NodeID, len(labels))
	for i, l := range labels {
		ids[l] = g.AddNode(l, "concept", core.Position{X: float64(i)}, 0)
	}
	wire := func(a, b string) {
		g.Wire(ids[a], ids[b], 0.5, 0.2, 0)
	}
	wire("alpha", "beta")
	wire("alpha", "hub")
	wire("beta", "hub")
	wire("gamma", "delta")
	wire("gamma", "hub")
	wire("delta", "hub")
	return c
}

func TestExplorePath(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	resp, err := e.Explore(ExploreRequest{Kind: ExplorePath, From: "alpha", To: "delta"})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if resp.Path == nil || !resp.Path.Found {
		t.Fatal("path between connected nodes not found")
	}
	if got := resp.Path.Path[0]; got != "alpha" {
		t.Errorf("path starts at %q, want alpha", got)
	}
	if got := resp.Path.Path[len(resp.Path.Path)-1]; got != "delta" {
		t.Errorf("path ends at %q, want delta", got)
	}
	if resp.Path.Cost <= 0 {
		t.Errorf("path cost %.3f, want > 0", resp.Path.Cost)
	}
}

func TestExplorePathUnknownLabelIsAResult(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	resp, err := e.Explore(ExploreRequest{Kind: ExplorePath, From: "alpha", To: "nonexistent"})
	if err != nil {
		t.Fatalf("unknown label must not be an error, got %v", err)
	}
	if resp.Path == nil || resp.Path.Found {
		t.Error("expected found=false for an unknown endpoint")
	}
}

func TestExploreBridgesFindsTheHub(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	resp, err := e.Explore(ExploreRequest{Kind: ExploreBridges, TopK: 3})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(resp.Bridges) == 0 {
		t.Fatal("no bridge nodes reported")
	}
	if resp.Bridges[0].Label != "hub" {
		t.Errorf("top bridge = %q, want hub", resp.Bridges[0].Label)
	}
	if resp.Bridges[0].Fragility <= 0 {
		t.Errorf("hub fragility %.3f, want > 0", resp.Bridges[0].Fragility)
	}
}

func TestExploreCentralityRanksTheHub(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	resp, err := e.Explore(ExploreRequest{Kind: ExploreCentrality, TopK: 2})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(resp.Centrality) == 0 {
		t.Fatal("no centrality entries")
	}
	if len(resp.Centrality) > 2 {
		t.Errorf("top_k=2 returned %d entries", len(resp.Centrality))
	}
	// every alpha-beta side to gamma-delta side path runs through the
	// hub, so it dominates the sampled ranking
	if resp.Centrality[0].Label != "hub" {
		t.Errorf("most central = %q, want hub", resp.Centrality[0].Label)
	}
}

func TestExploreStats(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	resp, err := e.Explore(ExploreRequest{Kind: ExploreStats})
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if resp.Stats == nil {
		t.Fatal("no stats payload")
	}
	if resp.Stats.Nodes != 5 || resp.Stats.Edges != 6 {
		t.Errorf("stats = %d nodes %d edges, want 5 and 6", resp.Stats.Nodes, resp.Stats.Edges)
	}
	if resp.Stats.Components != 1 {
		t.Errorf("components = %d, want 1", resp.Stats.Components)
	}
}

func TestExploreUnknownKind(t *testing.T) {
	c := bridgeColony(t)
	e := New(c, nil)

	if _, err := e.Explore(ExploreRequest{Kind: "voronoi"}); err == nil {
		t.Fatal("unknown explore kind must error")
	}
}
