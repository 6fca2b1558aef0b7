// Package core defines the shared domain types of the colony: concept
// nodes and Hebbian edges, agent identity, the substrate primitives
// (signals, traces, documents) and the snapshot format used by the
// persistence layer.
//
// Everything cross-references by opaque handle (NodeID, AgentID,
// DocumentID), never by pointer, so no package holds a live reference
// into another package's owning collection.
package core

import (
	"math"

	"github.com/google/uuid"
)

// NodeID is the opaque handle of a concept node. IDs are allocated
// from a monotonic counter owned by the graph and are never reused,
// even after the node is pruned.
type NodeID int64

// AgentID identifies an agent for its whole lifetime.
type AgentID string

// NewAgentID returns a fresh random agent identity.
func NewAgentID() AgentID { return AgentID(uuid.NewString()) }

// DocumentID identifies a staged document.
type DocumentID string

// NewDocumentID returns a fresh random document identity.
func NewDocumentID() DocumentID { return DocumentID(uuid.NewString()) }

// Position is a point in the 2D substrate plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to other.
func (p Position) Distance(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// GridKey is a quantized position used to key the trace store.
// Positions are quantized at 0.1 resolution.
type GridKey struct {
	X int64
	Y int64
}

// Quantize maps a position to its trace-store key.
func Quantize(p Position) GridKey {
	return GridKey{
		X: int64(math.Round(p.X * 10)),
		Y: int64(math.Round(p.Y * 10)),
	}
}

// ConceptNode is a concept in the knowledge graph.
type ConceptNode struct {
	ID          NodeID   `json:"id"`
	Label       string   `json:"label"`
	Category    string   `json:"category"`
	AccessCount uint64   `json:"access_count"`
	Position    Position `json:"position"`
	CreatedTick uint64   `json:"created_tick"`
}

// HebbianEdge is an undirected weighted connection between two
// concepts. At most one edge exists per unordered pair. Weight stays
// in [0, 1]; CoActivations never decreases while the edge exists.
type HebbianEdge struct {
	A                 NodeID  `json:"a"`
	B                 NodeID  `json:"b"`
	Weight            float64 `json:"weight"`
	CoActivations     uint64  `json:"co_activations"`
	CreatedTick       uint64  `json:"created_tick"`
	LastActivatedTick uint64  `json:"last_activated_tick"`
}

// Age returns how many ticks the edge has existed at the given tick.
func (e HebbianEdge) Age(tick uint64) uint64 {
	if tick < e.CreatedTick {
		return 0
	}
	return tick - e.CreatedTick
}

// Staleness returns how many ticks have passed since the edge was
// last reinforced.
func (e HebbianEdge) Staleness(tick uint64) uint64 {
	if tick < e.LastActivatedTick {
		return 0
	}
	return tick - e.LastActivatedTick
}

// SignalKind classifies a signal in the substrate field.
type SignalKind string

const (
	SignalNutrient SignalKind = "nutrient"
	SignalHelp     SignalKind = "help"
	SignalDanger   SignalKind = "danger"
	SignalTrail    SignalKind = "trail"
)

// Signal is a decaying spatial intensity emitted into the substrate.
type Signal struct {
	Kind      SignalKind
	Position  Position
	Intensity float64
	Payload   string
}

// TraceKind classifies an agent-deposited marker.
type TraceKind string

const (
	TraceVisited  TraceKind = "visited"
	TraceDigested TraceKind = "digested"
	TraceWarning  TraceKind = "warning"
)

// Trace is a decaying marker an agent leaves at a quantized position.
type Trace struct {
	Kind     TraceKind
	Position Position
	Strength float64
	Agent    AgentID
}

// Document is staged nutrient input. Agents digest it into concept
// fragments; ingestion itself never creates graph structure.
type Document struct {
	ID       DocumentID
	Title    string
	Content  string
	Position Position
	Digested bool
}

// Fragment is a concept candidate extracted from a document.
type Fragment struct {
	Label    string
	Category string
}

// CellHealth is an agent's self-assessed state.
type CellHealth int

const (
	Healthy CellHealth = iota
	Stressed
	Compromised
	Redundant
	Senescent
)

func (h CellHealth) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Stressed:
		return "stressed"
	case Compromised:
		return "compromised"
	case Redundant:
		return "redundant"
	case Senescent:
		return "senescent"
	}
	return "unknown"
}

// Terminal reports whether the state makes the agent eligible for
// apoptosis once its idle tolerance is exceeded.
func (h CellHealth) Terminal() bool {
	return h == Compromised || h == Redundant || h == Senescent
}

// AgentKind is the closed set of agent behaviors.
type AgentKind int

const (
	KindDigester AgentKind = iota
	KindSentinel
	KindSynthesizer
)

func (k AgentKind) String() string {
	switch k {
	case KindDigester:
		return "digester"
	case KindSentinel:
		return "sentinel"
	case KindSynthesizer:
		return "synthesizer"
	}
	return "unknown"
}

// Snapshot is the persistence image of a colony's graph state.
// The tick counter is part of the image: decay and maturation math
// after a restore must behave as if the run never stopped.
type Snapshot struct {
	Tick  uint64        `json:"tick"`
	Nodes []ConceptNode `json:"nodes"`
	Edges []HebbianEdge `json:"edges"`
}
