package genome

import (
	"math/rand"

	"github.com/clemens865/phago/pkg/core"
)

// Scored pairs an agent with its absolute fitness score. Callers pass
// candidates in a stable order (spawn sequence); selectors break ties
// by that order, never by identity, so selection stays deterministic
// under a fixed seed.
type Scored struct {
	ID    core.AgentID
	Score float64
}

// Selector picks a reproduction parent from the scored population.
type Selector interface {
	Select(pop []Scored, rng *rand.Rand) (core.AgentID, bool)
}

// FittestSelector picks the highest-scoring candidate, first-listed
// on ties. This is the default policy.
type FittestSelector struct{}

func (FittestSelector) Select(pop []Scored, _ *rand.Rand) (core.AgentID, bool) {
	if len(pop) == 0 {
		return "", false
	}
	best := pop[0]
	for _, c := range pop[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best.ID, true
}

// TournamentSelector samples K candidates uniformly and picks the
// best of them. Softer selection pressure than FittestSelector.
type TournamentSelector struct {
	K int
}

func (s TournamentSelector) Select(pop []Scored, rng *rand.Rand) (core.AgentID, bool) {
	if len(pop) == 0 {
		return "", false
	}
	k := s.K
	if k < 1 {
		k = 2
	}
	best := pop[rng.Intn(len(pop))]
	for i := 1; i < k; i++ {
		c := pop[rng.Intn(len(pop))]
		if c.Score > best.Score {
			best = c
		}
	}
	return best.ID, true
}
