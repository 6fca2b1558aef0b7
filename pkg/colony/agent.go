package colony

import (
	"math"
	"math/rand"
	"sort"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/genome"
	"github.com/clemens865/phago/pkg/textanalyzer"
)

// maxFragmentsPerDigest bounds how many concepts one digestion can
// present; pairwise wiring grows quadratically with it.
const maxFragmentsPerDigest = 8

// Agent is one worker in the colony. Behavior differs by Kind and is
// dispatched with a switch in the Sense/Act phase; an agent never
// mutates shared state directly, it only emits proposals.
type Agent struct {
	ID       core.AgentID
	Seq      uint64
	Kind     core.AgentKind
	Position core.Position
	Genome   genome.Genome
	Health   core.CellHealth

	Age        uint64
	Idle       uint64
	Generation int

	// vocabulary is the set of concept labels the agent has seen.
	// Known terms get a keyword boost during digestion and are what
	// the agent hands over on transfer or death.
	vocabulary map[string]struct{}

	trust        float64
	permeability float64

	apoptosing bool
	dissolving bool

	// rng is private to the agent and seeded from the colony seed and
	// the agent's spawn sequence, so the parallel Sense/Act phase
	// stays deterministic.
	rng *rand.Rand
}

func newAgent(seq uint64, kind core.AgentKind, g genome.Genome, pos core.Position, generation int, seed int64) *Agent {
	return &Agent{
		ID:         core.NewAgentID(),
		Seq:        seq,
		Kind:       kind,
		Position:   pos,
		Genome:     g.Clamp(),
		Generation: generation,
		vocabulary: make(map[string]struct{}),
		rng:        rand.New(rand.NewSource(seed ^ int64(seq*0x9E3779B97F4A7C15))),
	}
}

// Knows reports whether the term is in the agent's vocabulary.
func (a *Agent) Knows(term string) bool {
	_, ok := a.vocabulary[term]
	return ok
}

func (a *Agent) learn(term string) {
	a.vocabulary[term] = struct{}{}
}

// VocabularySize returns the number of known terms.
func (a *Agent) VocabularySize() int { return len(a.vocabulary) }

// proposalKind enumerates the mutations an agent may propose.
type proposalKind int

const (
	proposeMove proposalKind = iota
	proposeDigest
	proposeWirePair
	proposeReinforce
	proposeTrace
	proposeSignal
)

// proposal is one collected write intent. Proposals are applied as a
// single batch after the Act phase, walked in the population slice's
// spawn order, so the tick outcome is independent of goroutine
// scheduling.
type proposal struct {
	agent core.AgentID
	kind  proposalKind

	move      core.Position
	doc       core.DocumentID
	fragments []core.Fragment
	a, b      core.NodeID
	trace     core.Trace
	signal    core.Signal
}

// act runs the agent's Sense and Act behavior against a read-only
// view of the substrate and returns its proposals for this tick.
func (a *Agent) act(view *substrateView) []proposal {
	switch a.Kind {
	case core.KindDigester:
		return a.actDigester(view)
	case core.KindSentinel:
		return a.actSentinel(view)
	case core.KindSynthesizer:
		return a.actSynthesizer(view)
	}
	return nil
}

func (a *Agent) actDigester(view *substrateView) []proposal {
	// Sense: nearest undigested document within reach.
	doc, ok := view.nearestUndigested(a.Position, a.Genome.SenseRadius)
	if !ok {
		// No food in range: follow the strongest nutrient signal, or
		// wander with the explore bias.
		if sig, ok := a.strongestSignal(view, core.SignalNutrient); ok {
			return []proposal{a.moveToward(sig.Position)}
		}
		return []proposal{a.wander()}
	}

	if doc.Position.Distance(a.Position) > 1.0 {
		return []proposal{a.moveToward(doc.Position)}
	}

	// Digest: extract scored keywords, boosting terms the agent
	// already knows.
	fragments := a.extractFragments(doc)
	out := []proposal{{
		agent:     a.ID,
		kind:      proposeDigest,
		doc:       doc.ID,
		fragments: fragments,
	}}
	out = append(out, proposal{
		agent: a.ID,
		kind:  proposeTrace,
		trace: core.Trace{Kind: core.TraceDigested, Position: doc.Position, Strength: 1.0, Agent: a.ID},
	})
	out = append(out, proposal{
		agent:  a.ID,
		kind:   proposeSignal,
		signal: core.Signal{Kind: core.SignalTrail, Position: doc.Position, Intensity: 0.5, Payload: doc.Title},
	})
	return out
}

// extractFragments scores document terms by frequency, with a genome
// boost for terms already in the agent's vocabulary, and keeps the
// top scorers.
func (a *Agent) extractFragments(doc core.Document) []core.Fragment {
	freq := textanalyzer.TermFrequencies(doc.Title + " " + doc.Content)
	type scored struct {
		term  string
		score float64
	}
	terms := make([]scored, 0, len(freq))
	for term, n := range freq {
		score := float64(n)
		if a.Knows(term) {
			score += a.Genome.KeywordBoost
		}
		terms = append(terms, scored{term, score})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].score != terms[j].score {
			return terms[i].score > terms[j].score
		}
		return terms[i].term < terms[j].term
	})

	limit := maxFragmentsPerDigest
	if len(terms) < limit {
		limit = len(terms)
	}
	out := make([]core.Fragment, 0, limit)
	for _, s := range terms[:limit] {
		out = append(out, core.Fragment{Label: s.term, Category: "concept"})
	}
	return out
}

func (a *Agent) actSentinel(view *substrateView) []proposal {
	// Sense: danger signals demand a warning trace at their source.
	if sig, ok := a.strongestSignal(view, core.SignalDanger); ok {
		return []proposal{
			{
				agent: a.ID,
				kind:  proposeTrace,
				trace: core.Trace{Kind: core.TraceWarning, Position: sig.Position, Strength: sig.Intensity, Agent: a.ID},
			},
			a.moveToward(sig.Position),
		}
	}

	// Patrol: reinforce the strongest edge of a nearby concept. The
	// sentinel treats local traffic as evidence the connection still
	// matters, slowing its decay.
	if id, ok := view.nodeNear(a.Position, a.Genome.SenseRadius, a.rng); ok {
		if edges := view.graph.IncidentEdges(id); len(edges) > 0 {
			best := edges[0]
			for _, e := range edges[1:] {
				if e.Weight > best.Weight {
					best = e
				}
			}
			return []proposal{
				{agent: a.ID, kind: proposeReinforce, a: best.A, b: best.B},
				a.wander(),
			}
		}
	}
	return []proposal{a.wander()}
}

func (a *Agent) actSynthesizer(view *substrateView) []proposal {
	// Sample two concepts and propose a cross-link when their labels
	// look related but no edge exists yet. Wiring selectivity sets
	// how much lexical evidence is demanded.
	x, okx := view.randomNode(a.rng)
	y, oky := view.randomNode(a.rng)
	if !okx || !oky || x == y {
		return []proposal{a.wander()}
	}
	nx, _ := view.graph.GetNode(x)
	ny, _ := view.graph.GetNode(y)
	if _, exists := view.graph.GetEdge(x, y); exists {
		return []proposal{a.wander()}
	}
	if labelSimilarity(nx.Label, ny.Label) < a.Genome.WiringSelectivity*0.5 {
		return []proposal{a.wander()}
	}
	return []proposal{
		{agent: a.ID, kind: proposeWirePair, a: x, b: y},
		a.wander(),
	}
}

func (a *Agent) strongestSignal(view *substrateView, kind core.SignalKind) (core.Signal, bool) {
	var best core.Signal
	found := false
	for _, sig := range view.signalsNear(a.Position, a.Genome.SenseRadius) {
		if sig.Kind != kind {
			continue
		}
		if !found || sig.Intensity > best.Intensity {
			best = sig
			found = true
		}
	}
	return best, found
}

func (a *Agent) moveToward(target core.Position) proposal {
	d := target.Distance(a.Position)
	step := math.Min(d, 2.0)
	var next core.Position
	if d > 0 {
		next = core.Position{
			X: a.Position.X + (target.X-a.Position.X)/d*step,
			Y: a.Position.Y + (target.Y-a.Position.Y)/d*step,
		}
	} else {
		next = a.Position
	}
	return proposal{agent: a.ID, kind: proposeMove, move: next}
}

func (a *Agent) wander() proposal {
	// Boundary bias pulls the walk outward (positive) or back toward
	// the origin (negative).
	angle := a.rng.Float64() * 2 * math.Pi
	step := 0.5 + a.Genome.ExploreBias*2.0
	next := core.Position{
		X: a.Position.X + math.Cos(angle)*step,
		Y: a.Position.Y + math.Sin(angle)*step,
	}
	if bias := a.Genome.BoundaryBias; bias != 0 {
		next.X += -next.X * 0.05 * -bias
		next.Y += -next.Y * 0.05 * -bias
	}
	return proposal{agent: a.ID, kind: proposeMove, move: next}
}

// selfAssess classifies the agent's health from its relative fitness
// and idle history. Only this assessment can start apoptosis; no
// external controller ever kills an agent.
func (a *Agent) selfAssess(relative float64, redundant bool) core.CellHealth {
	maxIdle := uint64(a.Genome.MaxIdle)
	switch {
	case a.Idle >= maxIdle:
		return core.Senescent
	case relative < 0.25 && a.Idle > maxIdle/2:
		return core.Compromised
	case redundant && a.Idle > maxIdle/2:
		return core.Redundant
	case a.Idle >= maxIdle/2 || relative < 0.5:
		return core.Stressed
	}
	return core.Healthy
}

// updateMembrane evolves trust and permeability. High permeability
// eventually lets the agent dissolve into the colony, donating its
// vocabulary to the shared capability pool.
func (a *Agent) updateMembrane(productive bool) {
	if productive {
		a.trust = math.Min(a.trust+0.02, 1.0)
	} else {
		a.trust = math.Max(a.trust-0.01, 0)
	}
	ageTerm := math.Min(float64(a.Age)/200.0, 1.0)
	reinfTerm := a.Genome.ReinforcementBoost / 0.3
	a.permeability = 0.3*reinfTerm + 0.3*ageTerm + 0.4*a.trust
}

func (a *Agent) readyToDissolve() bool {
	return a.permeability > 0.95 && a.Age > 100 && len(a.vocabulary) > 0
}

// labelSimilarity is the Jaccard similarity of the character trigram
// sets of two labels.
func labelSimilarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	runes := []rune(s)
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = struct{}{}
	}
	return out
}
