package topology

import (
	"testing"

	"github.com/clemens865/phago/pkg/core"
)

func addNode(t *testing.T, g *Graph, label string, tick uint64) core.NodeID {
	t.Helper()
	return g.AddNode(label, "concept", core.Position{}, tick)
}

func TestTentativeWiringIdempotence(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	b := addNode(t, g, "beta", 0)

	// 1. First co-occurrence creates exactly one tentative edge.
	g.Wire(a, b, 0.1, 0.05, 1)
	e, ok := g.GetEdge(a, b)
	if !ok {
		t.Fatal("edge not created")
	}
	if e.Weight != 0.1 {
		t.Errorf("tentative weight = %v, want 0.1", e.Weight)
	}
	if e.CoActivations != 1 {
		t.Errorf("co-activations = %d, want 1", e.CoActivations)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("edge count = %d, want 1", g.EdgeCount())
	}

	// 2. Re-wiring reinforces the same edge instead of duplicating it.
	g.Wire(a, b, 0.1, 0.05, 2)
	e, _ = g.GetEdge(a, b)
	if e.Weight <= 0.1 {
		t.Errorf("weight after reinforcement = %v, want > 0.1", e.Weight)
	}
	if e.CoActivations != 2 {
		t.Errorf("co-activations = %d, want 2", e.CoActivations)
	}
	if e.LastActivatedTick != 2 {
		t.Errorf("last activated tick = %d, want 2", e.LastActivatedTick)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("edge count after rewire = %d, want 1", g.EdgeCount())
	}

	// 3. The undirected edge is reachable from both directions.
	if _, ok := g.GetEdge(b, a); !ok {
		t.Error("edge not visible from reversed endpoints")
	}
}

func TestWeightNeverExceedsCeiling(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	b := addNode(t, g, "beta", 0)

	for tick := uint64(1); tick <= 50; tick++ {
		g.Wire(a, b, 0.1, 0.3, tick)
	}
	e, _ := g.GetEdge(a, b)
	if e.Weight > 1.0 {
		t.Errorf("weight = %v, exceeds 1.0 ceiling", e.Weight)
	}
	if e.CoActivations != 50 {
		t.Errorf("co-activations = %d, want 50", e.CoActivations)
	}
}

func TestSelfEdgeIsSilentNoOp(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	g.Wire(a, a, 0.1, 0.05, 1)
	if g.EdgeCount() != 0 {
		t.Fatalf("self-wire created %d edges, want 0", g.EdgeCount())
	}
}

func TestMaturationWindowProtectsYoungEdges(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	b := addNode(t, g, "beta", 0)
	g.Wire(a, b, 0.01, 0.05, 0) // well below any threshold

	// The edge is 10 ticks old with a 50 tick maturation window:
	// prune must not touch it no matter how light and stale it is.
	removed := g.Prune(0.5, 0, 50, 10)
	if removed != 0 {
		t.Fatalf("prune removed %d edges inside maturation window", removed)
	}
	if _, ok := g.GetEdge(a, b); !ok {
		t.Fatal("young edge was removed")
	}
}

func TestTentativeEdgeDecaysOutUnreinforced(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	b := addNode(t, g, "beta", 0)
	c := addNode(t, g, "gamma", 0)

	// 1. One co-occurrence wires alpha-beta tentatively; gamma-alpha
	//    is reinforced twice more over the following ticks.
	g.Wire(a, b, 0.1, 0.15, 0)
	g.Wire(c, a, 0.1, 0.15, 0)
	g.Wire(c, a, 0.1, 0.15, 5)
	g.Wire(c, a, 0.1, 0.15, 10)

	// 2. Run decay past the maturation window.
	maturation := uint64(20)
	for tick := uint64(1); tick <= 40; tick++ {
		g.DecayEdges(0.01, 1.5, maturation, tick)
	}

	// 3. The unreinforced edge must fall to prune eligibility while
	//    the reinforced one stays above it.
	removed := g.Prune(0.1, 10, maturation, 40)
	if removed != 1 {
		t.Fatalf("prune removed %d edges, want 1", removed)
	}
	if _, ok := g.GetEdge(a, b); ok {
		t.Error("stale tentative edge survived prune")
	}
	reinforced, ok := g.GetEdge(c, a)
	if !ok {
		t.Fatal("reinforced edge was pruned")
	}
	if reinforced.Weight <= 0.1 {
		t.Errorf("reinforced weight = %v, want > tentative 0.1", reinforced.Weight)
	}
}

func TestCoActivationHistorySlowsDecay(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 0)
	b := addNode(t, g, "beta", 0)
	c := addNode(t, g, "gamma", 0)

	// Both edges start at the same weight; one has a deep
	// co-activation history, the other fired once.
	g.Wire(a, b, 0.5, 0, 0)
	g.Wire(a, c, 0.5, 0, 0)
	for tick := uint64(1); tick <= 10; tick++ {
		g.ReinforceEdge(a, b, 0, tick)
	}

	for tick := uint64(60); tick <= 120; tick++ {
		g.DecayEdges(0.01, 1.5, 20, tick)
	}

	strong, _ := g.GetEdge(a, b)
	weak, _ := g.GetEdge(a, c)
	if strong.Weight <= weak.Weight {
		t.Errorf("co-activated edge decayed faster: %v vs %v", strong.Weight, weak.Weight)
	}
}

func TestDegreeCapCompetitiveEviction(t *testing.T) {
	g := New()
	hub := addNode(t, g, "hub", 0)

	// Wire the hub to 10 spokes with increasing weights, then cap the
	// degree at 4: only the four heaviest edges may remain.
	var spokes []core.NodeID
	for i := 0; i < 10; i++ {
		s := addNode(t, g, "spoke", 0)
		spokes = append(spokes, s)
		g.Wire(hub, s, 0.05+float64(i)*0.05, 0, 0)
	}

	removed := g.PruneToMaxDegree(4)
	if removed != 6 {
		t.Fatalf("removed %d edges, want 6", removed)
	}
	if got := g.Degree(hub); got != 4 {
		t.Fatalf("hub degree = %d, want 4", got)
	}
	// The strongest spokes are the last-wired ones.
	for _, s := range spokes[6:] {
		if _, ok := g.GetEdge(hub, s); !ok {
			t.Errorf("strong edge to spoke %d evicted", s)
		}
	}
	for _, s := range spokes[:6] {
		if _, ok := g.GetEdge(hub, s); ok {
			t.Errorf("weak edge to spoke %d survived", s)
		}
	}
}

func TestShortestPathPrefersStrongEdges(t *testing.T) {
	g := New()
	a := addNode(t, g, "a", 0)
	b := addNode(t, g, "b", 0)
	c := addNode(t, g, "c", 0)

	// a-b direct but weak; a-c-b strong. Cost 1/w makes the two-hop
	// strong route cheaper than the weak direct one.
	g.Wire(a, b, 0.1, 0, 0)
	g.Wire(a, c, 0.9, 0, 0)
	g.Wire(c, b, 0.9, 0, 0)

	nodes, cost, ok := g.ShortestPath(a, b)
	if !ok {
		t.Fatal("no path found")
	}
	want := []core.NodeID{a, c, b}
	if len(nodes) != 3 || nodes[0] != want[0] || nodes[1] != want[1] || nodes[2] != want[2] {
		t.Errorf("path = %v, want %v", nodes, want)
	}
	if cost >= 1.0/0.1 {
		t.Errorf("cost = %v, should beat the weak direct edge", cost)
	}
}

func TestShortestPathDisconnected(t *testing.T) {
	g := New()
	a := addNode(t, g, "a", 0)
	b := addNode(t, g, "b", 0)
	if _, _, ok := g.ShortestPath(a, b); ok {
		t.Error("found a path between disconnected nodes")
	}
	if _, _, ok := g.ShortestPath(a, core.NodeID(999)); ok {
		t.Error("found a path to an unknown handle")
	}
}

func TestConnectedComponents(t *testing.T) {
	g := New()
	a := addNode(t, g, "a", 0)
	b := addNode(t, g, "b", 0)
	addNode(t, g, "c", 0)
	g.Wire(a, b, 0.5, 0, 0)

	if got := g.ConnectedComponents(); got != 2 {
		t.Errorf("components = %d, want 2", got)
	}
}

func TestBridgeNodesFindCutVertex(t *testing.T) {
	g := New()
	// Two triangles joined through a single cut vertex.
	l1 := addNode(t, g, "l1", 0)
	l2 := addNode(t, g, "l2", 0)
	mid := addNode(t, g, "mid", 0)
	r1 := addNode(t, g, "r1", 0)
	r2 := addNode(t, g, "r2", 0)

	g.Wire(l1, l2, 0.5, 0, 0)
	g.Wire(l1, mid, 0.5, 0, 0)
	g.Wire(l2, mid, 0.5, 0, 0)
	g.Wire(r1, r2, 0.5, 0, 0)
	g.Wire(r1, mid, 0.5, 0, 0)
	g.Wire(r2, mid, 0.5, 0, 0)

	bridges := g.BridgeNodes(3)
	if len(bridges) == 0 {
		t.Fatal("no bridge nodes found")
	}
	if bridges[0].ID != mid {
		t.Errorf("top bridge = %d, want the cut vertex %d", bridges[0].ID, mid)
	}
	if bridges[0].Fragility <= 0 {
		t.Errorf("fragility = %v, want > 0", bridges[0].Fragility)
	}
}

func TestBetweennessCreditsInteriorNodes(t *testing.T) {
	g := New()
	// A path graph a-b-c-d-e: interior nodes must outrank endpoints,
	// and b/c/d must receive nonzero credit.
	var ids []core.NodeID
	for _, l := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, addNode(t, g, l, 0))
	}
	for i := 0; i < 4; i++ {
		g.Wire(ids[i], ids[i+1], 0.5, 0, 0)
	}

	first := g.BetweennessCentrality(200)
	if len(first) == 0 {
		t.Fatal("no centrality scores")
	}
	if first[0].ID != ids[2] {
		t.Errorf("top central node = %d, want middle node %d", first[0].ID, ids[2])
	}

	// Sampling is seeded: the ranking must be reproducible.
	second := g.BetweennessCentrality(200)
	if len(first) != len(second) {
		t.Fatalf("rankings differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ranking not deterministic at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestFindByLabel(t *testing.T) {
	g := New()
	a := addNode(t, g, "Membrane", 0)
	if got := g.FindByLabel("membrane"); len(got) != 1 || got[0] != a {
		t.Errorf("FindByLabel = %v, want [%d]", got, a)
	}
	if got := g.FindByLabel("nucleus"); len(got) != 0 {
		t.Errorf("FindByLabel on unknown label = %v, want empty", got)
	}
	if got := g.FindByLabelPrefix("mem", 10); len(got) != 1 {
		t.Errorf("FindByLabelPrefix = %v, want one match", got)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	g := New()
	a := addNode(t, g, "alpha", 3)
	b := addNode(t, g, "beta", 4)
	g.Touch(a)
	g.Wire(a, b, 0.1, 0.05, 5)
	g.Wire(a, b, 0.1, 0.05, 9)

	restored := New()
	for _, n := range g.Nodes() {
		restored.RestoreNode(n)
	}
	for _, e := range g.Edges() {
		restored.RestoreEdge(e)
	}

	if restored.NodeCount() != g.NodeCount() || restored.EdgeCount() != g.EdgeCount() {
		t.Fatal("restored counts differ")
	}
	orig, _ := g.GetEdge(a, b)
	got, ok := restored.GetEdge(a, b)
	if !ok || got != orig {
		t.Errorf("restored edge = %+v, want %+v", got, orig)
	}

	// Handle allocation must continue past restored handles.
	next := restored.AddNode("gamma", "concept", core.Position{}, 10)
	if next <= b {
		t.Errorf("new handle %d reuses restored handle space", next)
	}
}
