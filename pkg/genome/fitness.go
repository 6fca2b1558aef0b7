package genome

import (
	"sync"

	"github.com/clemens865/phago/pkg/core"
)

// Record is the per-agent contribution ledger. It is written only by
// the scheduler's bookkeeping step after each tick; agents never
// touch their own record.
type Record struct {
	ConceptsContributed uint64
	NovelConcepts       uint64
	EdgesContributed    uint64
	StrongEdges         uint64
	BridgeEdges         uint64
	TicksAlive          uint64
	Generation          int
}

// Weights splits the fitness score across its four objectives.
type Weights struct {
	Productivity float64 `yaml:"productivity"`
	Novelty      float64 `yaml:"novelty"`
	Quality      float64 `yaml:"quality"`
	Connectivity float64 `yaml:"connectivity"`
}

// DefaultWeights returns the standard 30/30/20/20 split.
func DefaultWeights() Weights {
	return Weights{Productivity: 0.30, Novelty: 0.30, Quality: 0.20, Connectivity: 0.20}
}

// Tracker scores agents against each other. Fitness is always read
// relative to the current population mean, never on an absolute
// scale, so selection pressure adapts to whatever the colony is
// currently capable of.
type Tracker struct {
	mu      sync.RWMutex
	weights Weights
	records map[core.AgentID]*Record
}

// NewTracker returns an empty tracker.
func NewTracker(w Weights) *Tracker {
	return &Tracker{weights: w, records: make(map[core.AgentID]*Record)}
}

// Register adds an agent at the given generation.
func (t *Tracker) Register(id core.AgentID, generation int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[id] = &Record{Generation: generation}
}

// Unregister drops an agent's record.
func (t *Tracker) Unregister(id core.AgentID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, id)
}

// RecordConcepts credits concept contributions for one tick. novel
// counts the subset of contributions whose label was not already in
// the graph.
func (t *Tracker) RecordConcepts(id core.AgentID, total, novel uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return
	}
	rec.ConceptsContributed += total
	rec.NovelConcepts += novel
}

// RecordEdges credits edge contributions for one tick. strong counts
// edges that reached co-activation >= 2; bridge counts edges whose
// endpoints sat in different components before wiring.
func (t *Tracker) RecordEdges(id core.AgentID, total, strong, bridge uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[id]
	if !ok {
		return
	}
	rec.EdgesContributed += total
	rec.StrongEdges += strong
	rec.BridgeEdges += bridge
}

// TickAll advances every registered agent's age by one tick.
func (t *Tracker) TickAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, rec := range t.records {
		rec.TicksAlive++
	}
}

// Record returns a copy of the agent's ledger.
func (t *Tracker) Record(id core.AgentID) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Score computes the absolute multi-objective score:
//
//	productivity: contribution rate per tick alive, squashed to [0,1)
//	novelty:      fraction of contributed concepts new to the graph
//	quality:      fraction of contributed edges that went strong
//	connectivity: fraction of contributed edges that bridged components
func (t *Tracker) Score(id core.AgentID) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	if !ok {
		return 0
	}
	return t.score(rec)
}

func (t *Tracker) score(rec *Record) float64 {
	var productivity, novelty, quality, connectivity float64

	if rec.TicksAlive > 0 {
		rate := float64(rec.ConceptsContributed+rec.EdgesContributed) / float64(rec.TicksAlive)
		productivity = rate / (1.0 + rate)
	}
	if rec.ConceptsContributed > 0 {
		novelty = float64(rec.NovelConcepts) / float64(rec.ConceptsContributed)
	}
	if rec.EdgesContributed > 0 {
		quality = float64(rec.StrongEdges) / float64(rec.EdgesContributed)
		connectivity = float64(rec.BridgeEdges) / float64(rec.EdgesContributed)
	}

	w := t.weights
	return w.Productivity*productivity + w.Novelty*novelty + w.Quality*quality + w.Connectivity*connectivity
}

// Mean returns the mean absolute score across all registered agents,
// or 0 when none are registered.
func (t *Tracker) Mean() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.records) == 0 {
		return 0
	}
	var sum float64
	for _, rec := range t.records {
		sum += t.score(rec)
	}
	return sum / float64(len(t.records))
}

// Relative returns the agent's score divided by the population mean.
// A mean of zero (a brand-new colony) reads as 1.0 for everyone: no
// agent is penalized before anyone has produced anything.
func (t *Tracker) Relative(id core.AgentID) float64 {
	mean := t.Mean()
	if mean == 0 {
		return 1.0
	}
	return t.Score(id) / mean
}

// Population returns the number of registered agents.
func (t *Tracker) Population() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
