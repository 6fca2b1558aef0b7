// Package genome holds the heritable behavior of an agent: a fixed
// vector of continuous traits with hard ranges, Gaussian mutation,
// and the fitness bookkeeping that drives selection.
package genome

import (
	"math"
	"math/rand"
)

// A trait's valid range. Values outside it are clamped, never
// rejected: downstream formulas assume in-range inputs (a negative
// tentative weight would corrupt the graph).
type traitRange struct {
	min, max float64
}

var ranges = map[string]traitRange{
	"sense_radius":        {2, 30},
	"max_idle":            {5, 100},
	"keyword_boost":       {0.5, 10},
	"explore_bias":        {0, 1},
	"boundary_bias":       {-1, 1},
	"tentative_weight":    {0.05, 0.5},
	"reinforcement_boost": {0.01, 0.3},
	"wiring_selectivity":  {0.1, 1},
}

// Genome is the full trait vector of one agent.
type Genome struct {
	SenseRadius        float64 `json:"sense_radius" yaml:"sense_radius"`
	MaxIdle            float64 `json:"max_idle" yaml:"max_idle"`
	KeywordBoost       float64 `json:"keyword_boost" yaml:"keyword_boost"`
	ExploreBias        float64 `json:"explore_bias" yaml:"explore_bias"`
	BoundaryBias       float64 `json:"boundary_bias" yaml:"boundary_bias"`
	TentativeWeight    float64 `json:"tentative_weight" yaml:"tentative_weight"`
	ReinforcementBoost float64 `json:"reinforcement_boost" yaml:"reinforcement_boost"`
	WiringSelectivity  float64 `json:"wiring_selectivity" yaml:"wiring_selectivity"`
}

// Default returns the baseline genome of a first-generation agent.
func Default() Genome {
	return Genome{
		SenseRadius:        10,
		MaxIdle:            30,
		KeywordBoost:       3,
		ExploreBias:        0.3,
		BoundaryBias:       0,
		TentativeWeight:    0.1,
		ReinforcementBoost: 0.05,
		WiringSelectivity:  0.5,
	}
}

// Random returns a genome with every trait drawn uniformly from its
// range. Used by the random-spawn ablation policy.
func Random(rng *rand.Rand) Genome {
	u := func(name string) float64 {
		r := ranges[name]
		return r.min + rng.Float64()*(r.max-r.min)
	}
	return Genome{
		SenseRadius:        u("sense_radius"),
		MaxIdle:            u("max_idle"),
		KeywordBoost:       u("keyword_boost"),
		ExploreBias:        u("explore_bias"),
		BoundaryBias:       u("boundary_bias"),
		TentativeWeight:    u("tentative_weight"),
		ReinforcementBoost: u("reinforcement_boost"),
		WiringSelectivity:  u("wiring_selectivity"),
	}
}

func clamp(name string, v float64) float64 {
	r := ranges[name]
	if v < r.min {
		return r.min
	}
	if v > r.max {
		return r.max
	}
	return v
}

// Clamp forces every trait back into its declared range.
func (g Genome) Clamp() Genome {
	g.SenseRadius = clamp("sense_radius", g.SenseRadius)
	g.MaxIdle = clamp("max_idle", g.MaxIdle)
	g.KeywordBoost = clamp("keyword_boost", g.KeywordBoost)
	g.ExploreBias = clamp("explore_bias", g.ExploreBias)
	g.BoundaryBias = clamp("boundary_bias", g.BoundaryBias)
	g.TentativeWeight = clamp("tentative_weight", g.TentativeWeight)
	g.ReinforcementBoost = clamp("reinforcement_boost", g.ReinforcementBoost)
	g.WiringSelectivity = clamp("wiring_selectivity", g.WiringSelectivity)
	return g
}

// Mutate perturbs every trait independently with Gaussian noise whose
// standard deviation is sigma times the trait's range width, then
// clamps. Asexual reproduction: no crossover.
func (g Genome) Mutate(rng *rand.Rand, sigma float64) Genome {
	m := func(name string, v float64) float64 {
		r := ranges[name]
		width := r.max - r.min
		return clamp(name, v+rng.NormFloat64()*sigma*width)
	}
	g.SenseRadius = m("sense_radius", g.SenseRadius)
	g.MaxIdle = m("max_idle", g.MaxIdle)
	g.KeywordBoost = m("keyword_boost", g.KeywordBoost)
	g.ExploreBias = m("explore_bias", g.ExploreBias)
	g.BoundaryBias = m("boundary_bias", g.BoundaryBias)
	g.TentativeWeight = m("tentative_weight", g.TentativeWeight)
	g.ReinforcementBoost = m("reinforcement_boost", g.ReinforcementBoost)
	g.WiringSelectivity = m("wiring_selectivity", g.WiringSelectivity)
	return g
}

// Distance is the Euclidean distance between two genomes after
// normalizing each trait to its range, so wide and narrow traits
// contribute equally. Used for redundancy detection.
func (g Genome) Distance(other Genome) float64 {
	d := func(name string, a, b float64) float64 {
		r := ranges[name]
		n := (a - b) / (r.max - r.min)
		return n * n
	}
	sum := d("sense_radius", g.SenseRadius, other.SenseRadius) +
		d("max_idle", g.MaxIdle, other.MaxIdle) +
		d("keyword_boost", g.KeywordBoost, other.KeywordBoost) +
		d("explore_bias", g.ExploreBias, other.ExploreBias) +
		d("boundary_bias", g.BoundaryBias, other.BoundaryBias) +
		d("tentative_weight", g.TentativeWeight, other.TentativeWeight) +
		d("reinforcement_boost", g.ReinforcementBoost, other.ReinforcementBoost) +
		d("wiring_selectivity", g.WiringSelectivity, other.WiringSelectivity)
	return math.Sqrt(sum / 8)
}

// InRange reports whether every trait lies inside its declared range.
func (g Genome) InRange() bool {
	return g == g.Clamp()
}
