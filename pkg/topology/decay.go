package topology

import (
	"math"
	"sort"

	"github.com/clemens865/phago/pkg/core"
)

// maxDecayPerTick caps the effective decay rate so a single tick can
// never erase more than half an edge's weight.
const maxDecayPerTick = 0.5

// DecayEdges applies one tick of activity-aware decay to every edge.
//
// The effective rate grows with staleness but shrinks with the edge's
// co-activation history: a frequently co-activated edge resists decay
// even when it has not fired recently. Edges still inside their
// maturation window decay at the base rate only, so a brand-new
// tentative edge is judged on the same terms as any other until it
// has had a fair chance to be reinforced.
//
//	effective = base * (1 + stalenessFactor * staleness/100 * activity)
//	activity  = 1 / (1 + 0.5*coActivations)
func (gr *Graph) DecayEdges(base, stalenessFactor float64, maturationTicks, tick uint64) {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	it := gr.g.WeightedEdges()
	for it.Next() {
		data := it.WeightedEdge().(*edge).data

		rate := base
		if data.Age(tick) >= maturationTicks {
			staleness := float64(data.Staleness(tick))
			activity := 1.0 / (1.0 + 0.5*float64(data.CoActivations))
			rate = base * (1.0 + stalenessFactor*(staleness/100.0)*activity)
			if rate > maxDecayPerTick {
				rate = maxDecayPerTick
			}
		}

		data.Weight *= 1.0 - rate
		if data.Weight < 0 {
			data.Weight = 0
		}
	}
}

// Prune removes every edge that is past its maturation window, below
// the weight threshold, and unreinforced for more than stalenessLimit
// ticks. All three conditions must hold; the maturation grace period
// in particular is unconditional, so a young edge survives no matter
// how light it is. Returns the number of edges removed.
func (gr *Graph) Prune(weightThreshold float64, stalenessLimit, maturationTicks, tick uint64) int {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	type pair struct{ a, b int64 }
	var doomed []pair

	it := gr.g.WeightedEdges()
	for it.Next() {
		data := it.WeightedEdge().(*edge).data
		if data.Age(tick) < maturationTicks {
			continue
		}
		if data.Weight >= weightThreshold {
			continue
		}
		if data.Staleness(tick) <= stalenessLimit {
			continue
		}
		doomed = append(doomed, pair{int64(data.A), int64(data.B)})
	}

	for _, p := range doomed {
		gr.g.RemoveEdge(p.a, p.b)
	}
	return len(doomed)
}

// PruneToMaxDegree enforces the per-node degree cap by competitive
// eviction: a node over the cap keeps its maxDegree strongest edges
// and drops the rest. Ties rank by most recent reinforcement. An edge
// dropped for either endpoint is gone for both. Returns the number of
// edges removed.
func (gr *Graph) PruneToMaxDegree(maxDegree int) int {
	if maxDegree <= 0 {
		return 0
	}
	gr.mu.Lock()
	defer gr.mu.Unlock()

	var ids []int64
	nit := gr.g.Nodes()
	for nit.Next() {
		ids = append(ids, nit.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	removed := 0
	for _, id := range ids {
		if gr.degreeLocked(id) <= maxDegree {
			continue
		}
		incident := gr.incidentLocked(id)
		sort.Slice(incident, func(i, j int) bool {
			if incident[i].Weight != incident[j].Weight {
				return incident[i].Weight > incident[j].Weight
			}
			return incident[i].LastActivatedTick > incident[j].LastActivatedTick
		})
		for _, e := range incident[maxDegree:] {
			gr.g.RemoveEdge(int64(e.A), int64(e.B))
			removed++
		}
	}
	return removed
}

// ReinforceEdge bumps an existing edge without creating one. Used by
// traversal paths that treat access as evidence of relevance.
func (gr *Graph) ReinforceEdge(a, b core.NodeID, inc float64, tick uint64) bool {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	e := gr.g.WeightedEdge(int64(a), int64(b))
	if e == nil {
		return false
	}
	data := e.(*edge).data
	data.Weight = math.Min(data.Weight+inc, 1.0)
	data.CoActivations++
	data.LastActivatedTick = tick
	return true
}
