// Package colony runs the simulation: a population of short-lived
// agents over a shared substrate, driven by a six-phase tick loop
// (Sense, Act, Transfer, Dissolve, Death, Decay) with all writes
// applied in a deterministic batch between phases.
package colony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/genome"
	"github.com/clemens865/phago/pkg/metrics"
	"github.com/clemens865/phago/pkg/topology"
)

// ErrClosed is returned by operations on a closed colony.
var ErrClosed = errors.New("colony: closed")

// Options configures a colony. Zero values fall back to the
// defaults, so callers can override selectively.
type Options struct {
	// Seed drives every stochastic choice: genome mutation, agent
	// walks, spawn placement. Two colonies with equal options, seed,
	// and inputs evolve identical graphs.
	Seed int64

	PopulationCap int
	SpawnInterval uint64
	MutationSigma float64

	// Workers bounds the goroutines used by the parallel Sense/Act
	// phase. Defaults to GOMAXPROCS.
	Workers int

	SignalDecayRate        float64
	SignalRemovalThreshold float64
	TraceDecayRate         float64
	TraceRemovalThreshold  float64

	EdgeDecayRate      float64
	EdgePruneThreshold float64
	EdgeStalenessLimit uint64
	StalenessFactor    float64
	MaturationTicks    uint64
	MaxEdgeDegree      int

	FitnessWeights genome.Weights
	Policy         SpawnPolicy
	Logger         *slog.Logger
}

// DefaultOptions returns the standard configuration.
func DefaultOptions() Options {
	return Options{
		Seed:                   42,
		PopulationCap:          12,
		SpawnInterval:          10,
		MutationSigma:          0.15,
		SignalDecayRate:        0.05,
		SignalRemovalThreshold: 0.01,
		TraceDecayRate:         0.02,
		TraceRemovalThreshold:  0.01,
		EdgeDecayRate:          0.005,
		EdgePruneThreshold:     0.05,
		EdgeStalenessLimit:     30,
		StalenessFactor:        1.5,
		MaturationTicks:        50,
		MaxEdgeDegree:          30,
		FitnessWeights:         genome.DefaultWeights(),
	}
}

// EventKind classifies a colony event.
type EventKind string

const (
	EventSpawn    EventKind = "spawn"
	EventDeath    EventKind = "death"
	EventDissolve EventKind = "dissolve"
	EventTransfer EventKind = "transfer"
	EventDigest   EventKind = "digest"
)

// Event is one entry of the colony's recent history ring.
type Event struct {
	Tick   uint64       `json:"tick"`
	Kind   EventKind    `json:"kind"`
	Agent  core.AgentID `json:"agent"`
	Detail string       `json:"detail,omitempty"`
}

const maxEvents = 256

// Stats is a point-in-time summary of the colony.
type Stats struct {
	Tick             uint64 `json:"tick"`
	Nodes            int    `json:"nodes"`
	Edges            int    `json:"edges"`
	Components       int    `json:"components"`
	AgentsAlive      int    `json:"agents_alive"`
	AgentsSpawned    uint64 `json:"agents_spawned"`
	AgentsDied       uint64 `json:"agents_died"`
	AgentsDissolved  uint64 `json:"agents_dissolved"`
	DocumentsPending int    `json:"documents_pending"`
	Capabilities     int    `json:"capabilities"`
	MaxGeneration    int    `json:"max_generation"`
}

// AgentStatus is a read-only snapshot of one live agent.
type AgentStatus struct {
	ID         core.AgentID
	Seq        uint64
	Kind       core.AgentKind
	Health     core.CellHealth
	Position   core.Position
	Genome     genome.Genome
	Age        uint64
	Idle       uint64
	Generation int
	Score      float64
}

// Colony is the single process-wide simulation context. One mutex
// serializes ticks, queries, and persistence, so reads never observe
// a half-applied tick.
type Colony struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	sub     *Substrate
	agents  []*Agent // ascending Seq
	nextSeq uint64
	rng     *rand.Rand
	tracker *genome.Tracker
	policy  SpawnPolicy

	events    []Event
	spawned   uint64
	died      uint64
	dissolved uint64

	closed bool
}

// Open creates a colony from the given options.
func Open(opts Options) (*Colony, error) {
	def := DefaultOptions()
	if opts.PopulationCap <= 0 {
		opts.PopulationCap = def.PopulationCap
	}
	if opts.SpawnInterval == 0 {
		opts.SpawnInterval = def.SpawnInterval
	}
	if opts.MutationSigma <= 0 {
		opts.MutationSigma = def.MutationSigma
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.SignalDecayRate <= 0 {
		opts.SignalDecayRate = def.SignalDecayRate
	}
	if opts.SignalRemovalThreshold <= 0 {
		opts.SignalRemovalThreshold = def.SignalRemovalThreshold
	}
	if opts.TraceDecayRate <= 0 {
		opts.TraceDecayRate = def.TraceDecayRate
	}
	if opts.TraceRemovalThreshold <= 0 {
		opts.TraceRemovalThreshold = def.TraceRemovalThreshold
	}
	if opts.EdgeDecayRate <= 0 {
		opts.EdgeDecayRate = def.EdgeDecayRate
	}
	if opts.EdgePruneThreshold <= 0 {
		opts.EdgePruneThreshold = def.EdgePruneThreshold
	}
	if opts.EdgeStalenessLimit == 0 {
		opts.EdgeStalenessLimit = def.EdgeStalenessLimit
	}
	if opts.StalenessFactor <= 0 {
		opts.StalenessFactor = def.StalenessFactor
	}
	if opts.MaturationTicks == 0 {
		opts.MaturationTicks = def.MaturationTicks
	}
	if opts.MaxEdgeDegree <= 0 {
		opts.MaxEdgeDegree = def.MaxEdgeDegree
	}
	if opts.FitnessWeights == (genome.Weights{}) {
		opts.FitnessWeights = def.FitnessWeights
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	c := &Colony{
		opts:    opts,
		log:     opts.Logger.With("component", "colony"),
		sub:     newSubstrate(),
		rng:     rand.New(rand.NewSource(opts.Seed)),
		tracker: genome.NewTracker(opts.FitnessWeights),
		policy:  opts.Policy,
	}
	if c.policy == nil {
		c.policy = NewFitnessSpawnPolicy(opts.PopulationCap, opts.SpawnInterval, opts.MutationSigma)
	}
	c.log.Info("colony opened",
		"seed", opts.Seed,
		"population_cap", opts.PopulationCap,
		"maturation_ticks", opts.MaturationTicks,
		"max_edge_degree", opts.MaxEdgeDegree)
	return c, nil
}

// Close shuts the colony down. Idempotent.
func (c *Colony) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.log.Info("colony closed", "tick", c.sub.tick, "nodes", c.sub.graph.NodeCount())
	return nil
}

// IngestDocument stages content as nutrients and announces it with a
// signal. No graph structure is created here; agents digest the
// document on later ticks.
func (c *Colony) IngestDocument(title, content string, pos core.Position) core.DocumentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.sub.StageDocument(title, content, pos)
	c.sub.EmitSignal(core.Signal{Kind: core.SignalNutrient, Position: pos, Intensity: 1.0, Payload: title})
	c.log.Debug("document staged", "id", string(id), "title", title, "bytes", len(content))
	return id
}

// Spawn adds an agent with the given kind, genome, and position.
func (c *Colony) Spawn(kind core.AgentKind, g genome.Genome, pos core.Position) core.AgentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawnLocked(SpawnSpec{Kind: kind, Genome: g, Position: pos})
}

// EnsureKind spawns a default-genome agent of the kind unless one is
// already alive. Returns the live or new agent's identity.
func (c *Colony) EnsureKind(kind core.AgentKind) core.AgentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.agents {
		if a.Kind == kind {
			return a.ID
		}
	}
	return c.spawnLocked(SpawnSpec{Kind: kind, Genome: genome.Default(), Position: core.Position{}})
}

func (c *Colony) spawnLocked(spec SpawnSpec) core.AgentID {
	a := newAgent(c.nextSeq, spec.Kind, spec.Genome, spec.Position, spec.Generation, c.opts.Seed)
	c.nextSeq++

	// Offspring inherit the colony's dissolved vocabulary.
	for term := range c.sub.capabilities {
		a.learn(term)
	}

	c.agents = append(c.agents, a)
	c.tracker.Register(a.ID, a.Generation)
	c.spawned++
	c.record(Event{Tick: c.sub.tick, Kind: EventSpawn, Agent: a.ID, Detail: spec.Kind.String()})
	metrics.AgentsSpawned.Inc()
	c.log.Debug("agent spawned", "agent", string(a.ID), "kind", spec.Kind.String(), "generation", spec.Generation)
	return a.ID
}

// Run advances the simulation n ticks. The context is checked
// between ticks only; a tick never stops midway.
func (c *Colony) Run(ctx context.Context, n uint64) error {
	for i := uint64(0); i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return ErrClosed
		}
		if err := c.tickLocked(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("tick %d: %w", c.sub.tick, err)
		}
		c.mu.Unlock()
	}
	return nil
}

// contribution accumulates one agent's graph output during the apply
// phase; it feeds the fitness tracker at bookkeeping time.
type contribution struct {
	concepts uint64
	novel    uint64
	edges    uint64
	strong   uint64
	bridge   uint64
}

func (c *Colony) tickLocked() error {
	start := time.Now()
	tick := c.sub.tick

	// Phases 1+2, Sense and Act: agents read a frozen view and emit
	// proposals. This is the only parallel section; nothing shared is
	// written until every goroutine has finished.
	view := newView(c.sub)
	results := make([][]proposal, len(c.agents))
	var eg errgroup.Group
	eg.SetLimit(c.opts.Workers)
	for i, a := range c.agents {
		eg.Go(func() error {
			results[i] = a.act(view)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	// Apply the batch in spawn-sequence order.
	contrib := make(map[core.AgentID]*contribution)
	productive := make(map[core.AgentID]bool)
	byID := make(map[core.AgentID]*Agent, len(c.agents))
	for _, a := range c.agents {
		byID[a.ID] = a
	}
	for _, proposals := range results {
		for _, p := range proposals {
			c.applyProposal(byID[p.agent], p, contrib, productive)
		}
	}

	// Phase 3, Transfer: neighboring agents pool vocabulary.
	c.transferPhase(tick)

	// Phase 4, Dissolve: fully permeable agents merge into the colony.
	for _, a := range c.agents {
		if a.readyToDissolve() {
			a.dissolving = true
			c.sub.IntegrateCapabilities(a.vocabulary)
			c.record(Event{Tick: tick, Kind: EventDissolve, Agent: a.ID, Detail: fmt.Sprintf("terms=%d", len(a.vocabulary))})
			c.log.Debug("agent dissolved", "agent", string(a.ID), "terms", len(a.vocabulary))
		}
	}

	// Phase 5, Death: self-assessment, then mark-and-compact. The
	// assessment is intrinsic; nothing here can veto an apoptosis.
	c.deathPhase(tick)

	// Phase 6, Decay: substrate and graph fade, then pruning.
	c.sub.decaySignals(c.opts.SignalDecayRate, c.opts.SignalRemovalThreshold)
	c.sub.decayTraces(c.opts.TraceDecayRate, c.opts.TraceRemovalThreshold)
	g := c.sub.graph
	g.DecayEdges(c.opts.EdgeDecayRate, c.opts.StalenessFactor, c.opts.MaturationTicks, tick)
	g.Prune(c.opts.EdgePruneThreshold, c.opts.EdgeStalenessLimit, c.opts.MaturationTicks, tick)
	g.PruneToMaxDegree(c.opts.MaxEdgeDegree)

	// Bookkeeping: contributions flow into the fitness tracker, idle
	// counters advance, ages advance.
	for _, a := range c.agents {
		if cb, ok := contrib[a.ID]; ok {
			c.tracker.RecordConcepts(a.ID, cb.concepts, cb.novel)
			c.tracker.RecordEdges(a.ID, cb.edges, cb.strong, cb.bridge)
		}
		if productive[a.ID] {
			a.Idle = 0
		} else {
			a.Idle++
		}
		a.updateMembrane(productive[a.ID])
		a.Age++
	}
	c.tracker.TickAll()

	// Spawn policy refills freed capacity.
	if spec, ok := c.policy.Spawn(c.candidatesLocked(), tick, c.rng); ok {
		c.spawnLocked(spec)
	}

	c.sub.advanceTick()

	metrics.TicksTotal.Inc()
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.AgentsAlive.Set(float64(len(c.agents)))
	metrics.GraphNodes.Set(float64(g.NodeCount()))
	metrics.GraphEdges.Set(float64(g.EdgeCount()))
	return nil
}

func (c *Colony) applyProposal(a *Agent, p proposal, contrib map[core.AgentID]*contribution, productive map[core.AgentID]bool) {
	if a == nil {
		return
	}
	g := c.sub.graph
	tick := c.sub.tick

	add := func() *contribution {
		cb, ok := contrib[a.ID]
		if !ok {
			cb = &contribution{}
			contrib[a.ID] = cb
		}
		return cb
	}

	switch p.kind {
	case proposeMove:
		a.Position = p.move

	case proposeDigest:
		// First proposer wins the document; late claimants no-op and
		// stay idle for the tick.
		if !c.sub.markDigested(p.doc) {
			return
		}
		doc, _ := c.sub.Document(p.doc)
		if len(p.fragments) == 0 {
			// Empty or stop-word-only content: zero fragments, no
			// productivity credit, tick loop continues.
			c.log.Debug("digestion yielded no fragments", "doc", string(p.doc))
			return
		}
		cb := add()
		ids := make([]core.NodeID, 0, len(p.fragments))
		for _, frag := range p.fragments {
			if existing := g.FindByLabel(frag.Label); len(existing) > 0 {
				g.Touch(existing[0])
				ids = append(ids, existing[0])
			} else {
				pos := core.Position{
					X: doc.Position.X + (c.rng.Float64()-0.5)*4,
					Y: doc.Position.Y + (c.rng.Float64()-0.5)*4,
				}
				ids = append(ids, g.AddNode(frag.Label, frag.Category, pos, tick))
				cb.novel++
			}
			cb.concepts++
			a.learn(frag.Label)
		}
		// Pairwise co-occurrence wiring across the presented set.
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				c.wireFor(a, cb, ids[i], ids[j])
			}
		}
		productive[a.ID] = true
		c.record(Event{Tick: tick, Kind: EventDigest, Agent: a.ID, Detail: doc.Title})

	case proposeWirePair:
		if _, ok := g.GetNode(p.a); !ok {
			return
		}
		if _, ok := g.GetNode(p.b); !ok {
			return
		}
		c.wireFor(a, add(), p.a, p.b)
		productive[a.ID] = true

	case proposeReinforce:
		if g.ReinforceEdge(p.a, p.b, a.Genome.ReinforcementBoost*0.5, tick) {
			productive[a.ID] = true
		}

	case proposeTrace:
		c.sub.DepositTrace(p.trace)

	case proposeSignal:
		c.sub.EmitSignal(p.signal)
	}
}

// wireFor wires one pair on behalf of an agent and classifies the
// contribution for fitness.
func (c *Colony) wireFor(a *Agent, cb *contribution, x, y core.NodeID) {
	if x == y {
		return
	}
	g := c.sub.graph
	bridged := !g.Connected(x, y)
	g.Wire(x, y, a.Genome.TentativeWeight, a.Genome.ReinforcementBoost, c.sub.tick)
	e, ok := g.GetEdge(x, y)
	if !ok {
		return
	}
	cb.edges++
	if e.CoActivations >= 2 {
		cb.strong++
	}
	if bridged {
		cb.bridge++
	}
}

func (c *Colony) transferPhase(tick uint64) {
	for i := 0; i < len(c.agents); i++ {
		for j := i + 1; j < len(c.agents); j++ {
			a, b := c.agents[i], c.agents[j]
			reach := a.Genome.SenseRadius
			if b.Genome.SenseRadius < reach {
				reach = b.Genome.SenseRadius
			}
			if a.Position.Distance(b.Position) > reach {
				continue
			}
			moved := 0
			for term := range a.vocabulary {
				if !b.Knows(term) {
					b.learn(term)
					moved++
				}
			}
			for term := range b.vocabulary {
				if !a.Knows(term) {
					a.learn(term)
					moved++
				}
			}
			if moved > 0 {
				c.record(Event{Tick: tick, Kind: EventTransfer, Agent: a.ID, Detail: fmt.Sprintf("peer=%s terms=%d", b.ID, moved)})
			}
		}
	}
}

func (c *Colony) deathPhase(tick uint64) {
	const redundancyDistance = 0.05

	scores := make(map[core.AgentID]float64, len(c.agents))
	for _, a := range c.agents {
		scores[a.ID] = c.tracker.Score(a.ID)
	}

	for _, a := range c.agents {
		if a.dissolving {
			continue
		}
		redundant := false
		for _, other := range c.agents {
			if other == a || other.dissolving || other.apoptosing {
				continue
			}
			if a.Genome.Distance(other.Genome) < redundancyDistance && scores[other.ID] > scores[a.ID] {
				redundant = true
				break
			}
		}
		a.Health = a.selfAssess(c.tracker.Relative(a.ID), redundant)
		if a.Health.Terminal() {
			a.apoptosing = true
		}
	}

	// Compact pass: departing agents first hand their vocabulary to
	// live neighbors, then leave. The slice being iterated is never
	// the one being mutated.
	kept := c.agents[:0]
	for _, a := range c.agents {
		if !a.apoptosing && !a.dissolving {
			kept = append(kept, a)
			continue
		}
		if a.apoptosing {
			c.bequeath(a)
			c.record(Event{Tick: tick, Kind: EventDeath, Agent: a.ID, Detail: a.Health.String()})
			metrics.AgentsDied.Inc()
			c.died++
			c.log.Debug("agent apoptosed", "agent", string(a.ID), "health", a.Health.String(), "age", a.Age)
		} else {
			c.dissolved++
		}
		c.tracker.Unregister(a.ID)
	}
	c.agents = kept
}

// bequeath transfers a dying agent's vocabulary to live agents within
// its sense radius. The genome is not inherited here; reproduction is
// the spawn policy's job.
func (c *Colony) bequeath(dying *Agent) {
	for _, other := range c.agents {
		if other == dying || other.apoptosing || other.dissolving {
			continue
		}
		if dying.Position.Distance(other.Position) > dying.Genome.SenseRadius {
			continue
		}
		for term := range dying.vocabulary {
			other.learn(term)
		}
	}
}

func (c *Colony) candidatesLocked() []Candidate {
	out := make([]Candidate, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, Candidate{
			ID:         a.ID,
			Seq:        a.Seq,
			Kind:       a.Kind,
			Genome:     a.Genome,
			Position:   a.Position,
			Score:      c.tracker.Score(a.ID),
			Generation: a.Generation,
		})
	}
	return out
}

func (c *Colony) record(ev Event) {
	c.events = append(c.events, ev)
	if len(c.events) > maxEvents {
		c.events = c.events[len(c.events)-maxEvents:]
	}
}

// Events returns up to limit most recent events, newest last.
func (c *Colony) Events(limit int) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	evs := c.events
	if limit > 0 && len(evs) > limit {
		evs = evs[len(evs)-limit:]
	}
	out := make([]Event, len(evs))
	copy(out, evs)
	return out
}

// Stats returns a point-in-time summary.
func (c *Colony) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	maxGen := 0
	for _, a := range c.agents {
		if a.Generation > maxGen {
			maxGen = a.Generation
		}
	}
	return Stats{
		Tick:             c.sub.tick,
		Nodes:            c.sub.graph.NodeCount(),
		Edges:            c.sub.graph.EdgeCount(),
		Components:       c.sub.graph.ConnectedComponents(),
		AgentsAlive:      len(c.agents),
		AgentsSpawned:    c.spawned,
		AgentsDied:       c.died,
		AgentsDissolved:  c.dissolved,
		DocumentsPending: c.sub.UndigestedCount(),
		Capabilities:     c.sub.CapabilityCount(),
		MaxGeneration:    maxGen,
	}
}

// Agents returns read-only snapshots of the live population in spawn
// order.
func (c *Colony) Agents() []AgentStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]AgentStatus, 0, len(c.agents))
	for _, a := range c.agents {
		out = append(out, AgentStatus{
			ID:         a.ID,
			Seq:        a.Seq,
			Kind:       a.Kind,
			Health:     a.Health,
			Position:   a.Position,
			Genome:     a.Genome,
			Age:        a.Age,
			Idle:       a.Idle,
			Generation: a.Generation,
			Score:      c.tracker.Score(a.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Graph exposes the knowledge graph directly. Individual graph
// operations take the graph's own lock, but a sequence of calls can
// interleave with a running tick; readers that need a consistent view
// across several operations go through WithGraph instead.
func (c *Colony) Graph() *topology.Graph {
	return c.sub.graph
}

// WithGraph runs fn with the colony lock held, so fn observes the
// graph strictly between ticks. The query engine reads through this.
// fn must not call back into colony methods that take the lock.
func (c *Colony) WithGraph(fn func(*topology.Graph)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.sub.graph)
}

// Substrate exposes the shared environment.
func (c *Colony) Substrate() *Substrate { return c.sub }

// Snapshot captures the persistent state: every node and edge record
// plus the tick counter.
func (c *Colony) Snapshot() *core.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &core.Snapshot{
		Tick:  c.sub.tick,
		Nodes: c.sub.graph.Nodes(),
		Edges: c.sub.graph.Edges(),
	}
}

// Restore replaces the graph and tick counter with a snapshot's
// contents. Decay and maturation math continue as if the run had
// never stopped; the tick counter is restored, not reset.
func (c *Colony) Restore(snap *core.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := topology.New()
	for _, n := range snap.Nodes {
		g.RestoreNode(n)
	}
	for _, e := range snap.Edges {
		g.RestoreEdge(e)
	}
	c.sub.graph = g
	c.sub.tick = snap.Tick
	c.log.Info("snapshot restored", "tick", snap.Tick, "nodes", len(snap.Nodes), "edges", len(snap.Edges))
}
