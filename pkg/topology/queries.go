package topology

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/clemens865/phago/pkg/core"
)

// inverseCost presents the graph to Dijkstra with traversal cost
// 1/weight, so strong connections are short.
type inverseCost struct {
	*simple.WeightedUndirectedGraph
}

func (g inverseCost) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	w, ok := g.WeightedUndirectedGraph.Weight(xid, yid)
	if !ok {
		return 0, false
	}
	return 1.0 / math.Max(w, minTraversalWeight), true
}

// ShortestPath returns the strongest-connection path between two
// nodes as an ordered handle sequence plus its total traversal cost.
// ok is false when either handle is unknown or the nodes are
// disconnected.
func (gr *Graph) ShortestPath(from, to core.NodeID) (nodes []core.NodeID, cost float64, ok bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.shortestLocked(int64(from), int64(to))
}

func (gr *Graph) shortestLocked(from, to int64) ([]core.NodeID, float64, bool) {
	src := gr.g.Node(from)
	if src == nil || gr.g.Node(to) == nil {
		return nil, 0, false
	}
	sp := path.DijkstraFrom(src, inverseCost{gr.g})
	hops, cost := sp.To(to)
	if len(hops) == 0 || math.IsInf(cost, 1) {
		return nil, 0, false
	}
	out := make([]core.NodeID, len(hops))
	for i, h := range hops {
		out[i] = core.NodeID(h.ID())
	}
	return out, cost, true
}

// Connected reports whether any path joins a and b. BFS, no weights.
func (gr *Graph) Connected(a, b core.NodeID) bool {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	from, to := int64(a), int64(b)
	if gr.g.Node(from) == nil || gr.g.Node(to) == nil {
		return false
	}
	if from == to {
		return true
	}
	visited := map[int64]bool{from: true}
	queue := []int64{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		it := gr.g.From(cur)
		for it.Next() {
			next := it.Node().ID()
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// CentralityScore is one entry of a betweenness ranking.
type CentralityScore struct {
	ID    core.NodeID
	Score float64
}

// BetweennessCentrality estimates betweenness by sampling node pairs,
// computing the shortest path for each, and crediting the interior
// nodes of every found path. Scores are normalized by the sample
// count, so they are comparable across graphs only at equal sample
// sizes. Exact betweenness is O(V*E) and intractable here.
//
// Sampling uses a fixed linear congruential generator so repeated
// calls over an unchanged graph rank identically.
func (gr *Graph) BetweennessCentrality(sampleSize int) []CentralityScore {
	gr.mu.RLock()
	defer gr.mu.RUnlock()

	ids := gr.sortedIDsLocked()
	n := len(ids)
	if n < 3 || sampleSize <= 0 {
		return nil
	}

	counts := make(map[int64]float64)
	state := uint64(0x9E3779B9)
	next := func() uint64 {
		state = state*6364136223846793005 + 1442695040888963407
		return state >> 33
	}

	for i := 0; i < sampleSize; i++ {
		src := ids[next()%uint64(n)]
		dst := ids[next()%uint64(n)]
		if src == dst {
			continue
		}
		hops, _, ok := gr.shortestLocked(src, dst)
		if !ok || len(hops) < 3 {
			continue
		}
		for _, mid := range hops[1 : len(hops)-1] {
			counts[int64(mid)]++
		}
	}

	out := make([]CentralityScore, 0, len(counts))
	for id, c := range counts {
		out = append(out, CentralityScore{ID: core.NodeID(id), Score: c / float64(sampleSize)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BridgeScore is one entry of a bridge-node ranking. Fragility is the
// number of extra components created by removing the node, divided by
// its degree.
type BridgeScore struct {
	ID        core.NodeID
	Fragility float64
}

// BridgeNodes returns the topK nodes whose removal would most
// fragment the graph.
func (gr *Graph) BridgeNodes(topK int) []BridgeScore {
	gr.mu.RLock()
	defer gr.mu.RUnlock()

	ids := gr.sortedIDsLocked()
	before := gr.componentsExcludingLocked(ids, -1)

	var out []BridgeScore
	for _, id := range ids {
		degree := gr.degreeLocked(id)
		if degree < 2 {
			continue
		}
		after := gr.componentsExcludingLocked(ids, id)
		frag := float64(after-before) / float64(degree)
		if frag <= 0 {
			continue
		}
		out = append(out, BridgeScore{ID: core.NodeID(id), Fragility: frag})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fragility != out[j].Fragility {
			return out[i].Fragility > out[j].Fragility
		}
		return out[i].ID < out[j].ID
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// ConnectedComponents returns the number of disjoint components.
func (gr *Graph) ConnectedComponents() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return len(topo.ConnectedComponents(gr.g))
}

func (gr *Graph) sortedIDsLocked() []int64 {
	var ids []int64
	it := gr.g.Nodes()
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// componentsExcludingLocked counts connected components over every
// node except skip (pass a negative skip to count them all). Used to
// simulate a node's removal without mutating the graph.
func (gr *Graph) componentsExcludingLocked(ids []int64, skip int64) int {
	visited := make(map[int64]bool, len(ids))
	count := 0
	for _, start := range ids {
		if start == skip || visited[start] {
			continue
		}
		count++
		queue := []int64{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			it := gr.g.From(cur)
			for it.Next() {
				next := it.Node().ID()
				if next == skip || visited[next] {
					continue
				}
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return count
}
