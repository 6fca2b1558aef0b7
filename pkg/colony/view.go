package colony

import (
	"math/rand"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/topology"
)

// substrateView is the read-only window agents get during the Sense
// and Act phases. The substrate is never mutated while views are in
// use, so views may be read from many goroutines. The node list is
// materialized once per tick so per-agent sampling is cheap and
// index-stable.
type substrateView struct {
	sub   *Substrate
	graph *topology.Graph
	nodes []core.ConceptNode
}

func newView(s *Substrate) *substrateView {
	return &substrateView{
		sub:   s,
		graph: s.graph,
		nodes: s.graph.Nodes(),
	}
}

func (v *substrateView) nearestUndigested(pos core.Position, radius float64) (core.Document, bool) {
	return v.sub.nearestUndigested(pos, radius)
}

func (v *substrateView) signalsNear(pos core.Position, radius float64) []core.Signal {
	return v.sub.SignalsNear(pos, radius)
}

func (v *substrateView) tracesNear(pos core.Position, radius float64) []core.Trace {
	return v.sub.TracesNear(pos, radius)
}

// nodeNear picks one node within radius of pos, uniformly from the
// agent's own generator.
func (v *substrateView) nodeNear(pos core.Position, radius float64, rng *rand.Rand) (core.NodeID, bool) {
	var near []core.NodeID
	for _, n := range v.nodes {
		if n.Position.Distance(pos) <= radius {
			near = append(near, n.ID)
		}
	}
	if len(near) == 0 {
		return 0, false
	}
	return near[rng.Intn(len(near))], true
}

// randomNode picks any node uniformly from the agent's generator.
func (v *substrateView) randomNode(rng *rand.Rand) (core.NodeID, bool) {
	if len(v.nodes) == 0 {
		return 0, false
	}
	return v.nodes[rng.Intn(len(v.nodes))].ID, true
}
