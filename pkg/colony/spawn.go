package colony

import (
	"math"
	"math/rand"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/genome"
)

// Candidate is a live agent as seen by a spawn policy.
type Candidate struct {
	ID         core.AgentID
	Seq        uint64
	Kind       core.AgentKind
	Genome     genome.Genome
	Position   core.Position
	Score      float64
	Generation int
}

// SpawnSpec describes the offspring a policy wants created.
type SpawnSpec struct {
	Kind       core.AgentKind
	Genome     genome.Genome
	Position   core.Position
	Parent     core.AgentID
	Generation int
}

// SpawnPolicy decides whether and how to add an agent after each
// tick. Returning false is the normal no-op case (population at
// capacity, interval not elapsed), never an error.
type SpawnPolicy interface {
	Spawn(pop []Candidate, tick uint64, rng *rand.Rand) (SpawnSpec, bool)
}

// FitnessSpawnPolicy clones the genome of a parent chosen by the
// selector (the fittest, by default), mutates it, and places the
// offspring near the parent with an offset scaled by the offspring's
// own explore bias. This is the default reproduction path.
type FitnessSpawnPolicy struct {
	Cap         int
	MinInterval uint64
	Sigma       float64
	Selector    genome.Selector

	lastSpawn uint64
	spawned   bool
}

// NewFitnessSpawnPolicy returns the default policy configuration.
func NewFitnessSpawnPolicy(cap int, minInterval uint64, sigma float64) *FitnessSpawnPolicy {
	return &FitnessSpawnPolicy{
		Cap:         cap,
		MinInterval: minInterval,
		Sigma:       sigma,
		Selector:    genome.FittestSelector{},
	}
}

func (p *FitnessSpawnPolicy) Spawn(pop []Candidate, tick uint64, rng *rand.Rand) (SpawnSpec, bool) {
	if len(pop) == 0 || len(pop) >= p.Cap {
		return SpawnSpec{}, false
	}
	if p.spawned && tick-p.lastSpawn < p.MinInterval {
		return SpawnSpec{}, false
	}

	scored := make([]genome.Scored, len(pop))
	for i, c := range pop {
		scored[i] = genome.Scored{ID: c.ID, Score: c.Score}
	}
	parentID, ok := p.Selector.Select(scored, rng)
	if !ok {
		return SpawnSpec{}, false
	}
	var parent Candidate
	for _, c := range pop {
		if c.ID == parentID {
			parent = c
			break
		}
	}

	child := parent.Genome.Mutate(rng, p.Sigma)
	angle := rng.Float64() * 2 * math.Pi
	offset := 1.0 + child.ExploreBias*5.0

	p.lastSpawn = tick
	p.spawned = true
	return SpawnSpec{
		Kind:   parent.Kind,
		Genome: child,
		Position: core.Position{
			X: parent.Position.X + math.Cos(angle)*offset,
			Y: parent.Position.Y + math.Sin(angle)*offset,
		},
		Parent:     parent.ID,
		Generation: parent.Generation + 1,
	}, true
}

// RandomSpawnPolicy ignores inheritance and spawns offspring with a
// freshly randomized genome. Experimental ablation baseline only.
type RandomSpawnPolicy struct {
	Cap         int
	MinInterval uint64

	lastSpawn uint64
	spawned   bool
}

func (p *RandomSpawnPolicy) Spawn(pop []Candidate, tick uint64, rng *rand.Rand) (SpawnSpec, bool) {
	if len(pop) >= p.Cap {
		return SpawnSpec{}, false
	}
	if p.spawned && tick-p.lastSpawn < p.MinInterval {
		return SpawnSpec{}, false
	}
	p.lastSpawn = tick
	p.spawned = true
	return SpawnSpec{
		Kind:   core.KindDigester,
		Genome: genome.Random(rng),
		Position: core.Position{
			X: (rng.Float64() - 0.5) * 20,
			Y: (rng.Float64() - 0.5) * 20,
		},
		Generation: maxGeneration(pop) + 1,
	}, true
}

// NoSpawnPolicy never spawns. Used in tests and fixed-population
// experiments.
type NoSpawnPolicy struct{}

func (NoSpawnPolicy) Spawn([]Candidate, uint64, *rand.Rand) (SpawnSpec, bool) {
	return SpawnSpec{}, false
}

func maxGeneration(pop []Candidate) int {
	max := 0
	for _, c := range pop {
		if c.Generation > max {
			max = c.Generation
		}
	}
	return max
}
