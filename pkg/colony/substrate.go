package colony

import (
	"sort"
	"strings"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/topology"
)

// Substrate is the shared environment: the knowledge graph, a
// decaying signal field, a trace store keyed by quantized position,
// staged documents, the colony-wide capability vocabulary, and the
// tick counter. It lives as long as the colony and is mutated only
// from the single-writer phases of the tick loop.
type Substrate struct {
	graph *topology.Graph

	signals []core.Signal
	traces  map[core.GridKey]core.Trace

	documents map[core.DocumentID]*core.Document
	docOrder  []core.DocumentID

	// capabilities is vocabulary dissolved into the colony by agents;
	// newly spawned agents seed their own vocabulary from it.
	capabilities map[string]struct{}

	tick uint64
}

func newSubstrate() *Substrate {
	return &Substrate{
		graph:        topology.New(),
		traces:       make(map[core.GridKey]core.Trace),
		documents:    make(map[core.DocumentID]*core.Document),
		capabilities: make(map[string]struct{}),
	}
}

// Graph returns the substrate's knowledge graph.
func (s *Substrate) Graph() *topology.Graph { return s.graph }

// Tick returns the current tick counter.
func (s *Substrate) Tick() uint64 { return s.tick }

func (s *Substrate) advanceTick() { s.tick++ }

// EmitSignal adds a signal to the field.
func (s *Substrate) EmitSignal(sig core.Signal) {
	s.signals = append(s.signals, sig)
}

// SignalsNear returns copies of the signals within radius of pos.
// Linear scan; the field stays small because signals decay out.
func (s *Substrate) SignalsNear(pos core.Position, radius float64) []core.Signal {
	var out []core.Signal
	for _, sig := range s.signals {
		if sig.Position.Distance(pos) <= radius {
			out = append(out, sig)
		}
	}
	return out
}

// DepositTrace records a marker at the trace's quantized position,
// keeping the stronger marker when one is already present.
func (s *Substrate) DepositTrace(tr core.Trace) {
	key := core.Quantize(tr.Position)
	if existing, ok := s.traces[key]; ok && existing.Strength >= tr.Strength {
		return
	}
	s.traces[key] = tr
}

// TracesNear returns the markers within radius of pos.
func (s *Substrate) TracesNear(pos core.Position, radius float64) []core.Trace {
	var out []core.Trace
	for _, tr := range s.traces {
		if tr.Position.Distance(pos) <= radius {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := core.Quantize(out[i].Position), core.Quantize(out[j].Position)
		if ki.X != kj.X {
			return ki.X < kj.X
		}
		return ki.Y < kj.Y
	})
	return out
}

// StageDocument adds nutrient input. Empty content is staged anyway;
// digestion simply yields zero fragments for it.
func (s *Substrate) StageDocument(title, content string, pos core.Position) core.DocumentID {
	id := core.NewDocumentID()
	s.documents[id] = &core.Document{
		ID:       id,
		Title:    strings.TrimSpace(title),
		Content:  content,
		Position: pos,
	}
	s.docOrder = append(s.docOrder, id)
	return id
}

// Document returns a copy of the staged document.
func (s *Substrate) Document(id core.DocumentID) (core.Document, bool) {
	doc, ok := s.documents[id]
	if !ok {
		return core.Document{}, false
	}
	return *doc, true
}

// nearestUndigested returns the closest undigested document within
// radius of pos. Iteration follows staging order so equal distances
// resolve the same way on every run.
func (s *Substrate) nearestUndigested(pos core.Position, radius float64) (core.Document, bool) {
	var best *core.Document
	bestDist := radius
	for _, id := range s.docOrder {
		doc := s.documents[id]
		if doc.Digested {
			continue
		}
		if d := doc.Position.Distance(pos); d <= bestDist && (best == nil || d < bestDist) {
			best = doc
			bestDist = d
		}
	}
	if best == nil {
		return core.Document{}, false
	}
	return *best, true
}

func (s *Substrate) markDigested(id core.DocumentID) bool {
	doc, ok := s.documents[id]
	if !ok || doc.Digested {
		return false
	}
	doc.Digested = true
	return true
}

// UndigestedCount returns how many staged documents still hold
// nutrients.
func (s *Substrate) UndigestedCount() int {
	n := 0
	for _, doc := range s.documents {
		if !doc.Digested {
			n++
		}
	}
	return n
}

// IntegrateCapabilities merges vocabulary dissolved by an agent into
// the colony-wide pool.
func (s *Substrate) IntegrateCapabilities(vocab map[string]struct{}) {
	for term := range vocab {
		s.capabilities[term] = struct{}{}
	}
}

// CapabilityCount returns the size of the colony vocabulary pool.
func (s *Substrate) CapabilityCount() int { return len(s.capabilities) }

// decaySignals fades every signal and drops the ones below the
// removal threshold.
func (s *Substrate) decaySignals(rate, threshold float64) {
	kept := s.signals[:0]
	for _, sig := range s.signals {
		sig.Intensity *= 1.0 - rate
		if sig.Intensity >= threshold {
			kept = append(kept, sig)
		}
	}
	s.signals = kept
}

// decayTraces fades every marker and drops the ones below the
// removal threshold.
func (s *Substrate) decayTraces(rate, threshold float64) {
	for key, tr := range s.traces {
		tr.Strength *= 1.0 - rate
		if tr.Strength < threshold {
			delete(s.traces, key)
			continue
		}
		s.traces[key] = tr
	}
}
