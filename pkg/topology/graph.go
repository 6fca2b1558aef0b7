// Package topology implements the Hebbian knowledge graph: tentative
// wiring with reinforcement, activity-aware decay, maturation-gated
// pruning, and the structural queries (paths, centrality, bridges,
// components) built on top of it.
//
// The store is a gonum weighted undirected graph; every edge carries
// Hebbian metadata (co-activation count, creation and last-reinforced
// ticks) alongside its weight. A btree keyed by lowercase label maps
// concept text to node handles.
package topology

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/btree"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/clemens865/phago/pkg/core"
)

// minTraversalWeight floors the weight used for path costs so a
// near-zero edge cannot produce an infinite cost.
const minTraversalWeight = 0.001

// node adapts a concept record to gonum's graph.Node.
type node struct {
	id   int64
	data *core.ConceptNode
}

func (n *node) ID() int64 { return n.id }

// edge adapts a Hebbian edge to gonum's graph.WeightedEdge. The
// traversal cost is derived separately; Weight here is the raw
// Hebbian weight.
type edge struct {
	f, t graph.Node
	data *core.HebbianEdge
}

func (e *edge) From() graph.Node         { return e.f }
func (e *edge) To() graph.Node           { return e.t }
func (e *edge) ReversedEdge() graph.Edge { return &edge{f: e.t, t: e.f, data: e.data} }
func (e *edge) Weight() float64          { return e.data.Weight }

// Graph is the colony's knowledge graph. All methods are safe for
// concurrent use; the colony additionally serializes ticks and
// queries so writers never interleave with a tick's apply phase.
type Graph struct {
	mu     sync.RWMutex
	g      *simple.WeightedUndirectedGraph
	nextID int64
	labels btree.Map[string, []int64]
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		g: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
	}
}

// AddNode creates a concept node and returns its handle. Handles are
// monotonically increasing and never reused.
func (gr *Graph) AddNode(label, category string, pos core.Position, tick uint64) core.NodeID {
	gr.mu.Lock()
	defer gr.mu.Unlock()

	id := gr.nextID
	gr.nextID++

	n := &node{id: id, data: &core.ConceptNode{
		ID:          core.NodeID(id),
		Label:       label,
		Category:    category,
		Position:    pos,
		CreatedTick: tick,
	}}
	gr.g.AddNode(n)
	gr.indexLabel(label, id)
	return core.NodeID(id)
}

func (gr *Graph) indexLabel(label string, id int64) {
	key := strings.ToLower(label)
	ids, _ := gr.labels.Get(key)
	gr.labels.Set(key, append(ids, id))
}

func (gr *Graph) unindexLabel(label string, id int64) {
	key := strings.ToLower(label)
	ids, ok := gr.labels.Get(key)
	if !ok {
		return
	}
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		gr.labels.Delete(key)
	} else {
		gr.labels.Set(key, kept)
	}
}

// GetNode returns a copy of the node record.
func (gr *Graph) GetNode(id core.NodeID) (core.ConceptNode, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	n := gr.g.Node(int64(id))
	if n == nil {
		return core.ConceptNode{}, false
	}
	return *n.(*node).data, true
}

// Touch increments the node's access counter.
func (gr *Graph) Touch(id core.NodeID) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	if n := gr.g.Node(int64(id)); n != nil {
		n.(*node).data.AccessCount++
	}
}

// RemoveNode deletes a node and its incident edges. The handle is
// retired, never reallocated.
func (gr *Graph) RemoveNode(id core.NodeID) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	n := gr.g.Node(int64(id))
	if n == nil {
		return
	}
	gr.unindexLabel(n.(*node).data.Label, int64(id))
	gr.g.RemoveNode(int64(id))
}

// FindByLabel returns the handles of nodes whose label matches,
// case-insensitively.
func (gr *Graph) FindByLabel(label string) []core.NodeID {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	ids, _ := gr.labels.Get(strings.ToLower(label))
	out := make([]core.NodeID, len(ids))
	for i, id := range ids {
		out[i] = core.NodeID(id)
	}
	return out
}

// FindByLabelPrefix scans the label index for labels beginning with
// the given prefix and returns the matching handles in label order.
func (gr *Graph) FindByLabelPrefix(prefix string, limit int) []core.NodeID {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	prefix = strings.ToLower(prefix)
	var out []core.NodeID
	gr.labels.Ascend(prefix, func(key string, ids []int64) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		for _, id := range ids {
			out = append(out, core.NodeID(id))
			if limit > 0 && len(out) >= limit {
				return false
			}
		}
		return true
	})
	return out
}

// NodeCount returns the number of live nodes.
func (gr *Graph) NodeCount() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.g.Nodes().Len()
}

// EdgeCount returns the number of live edges.
func (gr *Graph) EdgeCount() int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.g.Edges().Len()
}

// Degree returns the number of edges incident to the node.
func (gr *Graph) Degree(id core.NodeID) int {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.degreeLocked(int64(id))
}

func (gr *Graph) degreeLocked(id int64) int {
	if gr.g.Node(id) == nil {
		return 0
	}
	return gr.g.From(id).Len()
}

// Wire creates or reinforces the edge between a and b.
//
// A first co-occurrence must not permanently connect two concepts:
// the new edge starts at the tentative weight w0 with co-activation
// count 1 and has to be reinforced before its maturation window ends
// to survive pruning. Reinforcement adds inc up to the 1.0 ceiling
// and bumps the co-activation count and last-activated tick.
//
// Self-edges and unknown endpoints are silently ignored.
func (gr *Graph) Wire(a, b core.NodeID, w0, inc float64, tick uint64) {
	if a == b {
		return
	}
	gr.mu.Lock()
	defer gr.mu.Unlock()

	na := gr.g.Node(int64(a))
	nb := gr.g.Node(int64(b))
	if na == nil || nb == nil {
		return
	}

	if existing := gr.g.WeightedEdge(int64(a), int64(b)); existing != nil {
		data := existing.(*edge).data
		data.Weight = math.Min(data.Weight+inc, 1.0)
		data.CoActivations++
		data.LastActivatedTick = tick
		return
	}

	w0 = math.Min(math.Max(w0, 0), 1.0)
	gr.g.SetWeightedEdge(&edge{
		f: na,
		t: nb,
		data: &core.HebbianEdge{
			A:                 a,
			B:                 b,
			Weight:            w0,
			CoActivations:     1,
			CreatedTick:       tick,
			LastActivatedTick: tick,
		},
	})
}

// GetEdge returns a copy of the edge record between a and b.
func (gr *Graph) GetEdge(a, b core.NodeID) (core.HebbianEdge, bool) {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	e := gr.g.WeightedEdge(int64(a), int64(b))
	if e == nil {
		return core.HebbianEdge{}, false
	}
	return *e.(*edge).data, true
}

// Neighbors returns the handles adjacent to the node, sorted.
func (gr *Graph) Neighbors(id core.NodeID) []core.NodeID {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	if gr.g.Node(int64(id)) == nil {
		return nil
	}
	var out []core.NodeID
	it := gr.g.From(int64(id))
	for it.Next() {
		out = append(out, core.NodeID(it.Node().ID()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IncidentEdges returns copies of the edges touching the node.
func (gr *Graph) IncidentEdges(id core.NodeID) []core.HebbianEdge {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	return gr.incidentLocked(int64(id))
}

func (gr *Graph) incidentLocked(id int64) []core.HebbianEdge {
	if gr.g.Node(id) == nil {
		return nil
	}
	var out []core.HebbianEdge
	it := gr.g.From(id)
	for it.Next() {
		e := gr.g.WeightedEdge(id, it.Node().ID())
		out = append(out, *e.(*edge).data)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Nodes returns every node record, sorted by handle.
func (gr *Graph) Nodes() []core.ConceptNode {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	var out []core.ConceptNode
	it := gr.g.Nodes()
	for it.Next() {
		out = append(out, *it.Node().(*node).data)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns every edge record, sorted by endpoint pair.
func (gr *Graph) Edges() []core.HebbianEdge {
	gr.mu.RLock()
	defer gr.mu.RUnlock()
	var out []core.HebbianEdge
	it := gr.g.WeightedEdges()
	for it.Next() {
		out = append(out, *it.WeightedEdge().(*edge).data)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// RestoreNode reinserts a node record from a snapshot, keeping the
// handle counter ahead of every restored handle.
func (gr *Graph) RestoreNode(rec core.ConceptNode) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	data := rec
	gr.g.AddNode(&node{id: int64(rec.ID), data: &data})
	gr.indexLabel(rec.Label, int64(rec.ID))
	if int64(rec.ID) >= gr.nextID {
		gr.nextID = int64(rec.ID) + 1
	}
}

// RestoreEdge reinserts an edge record from a snapshot. Both
// endpoints must have been restored first.
func (gr *Graph) RestoreEdge(rec core.HebbianEdge) {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	na := gr.g.Node(int64(rec.A))
	nb := gr.g.Node(int64(rec.B))
	if na == nil || nb == nil || rec.A == rec.B {
		return
	}
	data := rec
	gr.g.SetWeightedEdge(&edge{f: na, t: nb, data: &data})
}
