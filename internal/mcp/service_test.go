package mcp

import (
	"context"
	"math"
	"testing"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
)

// testService returns a service over a colony whose graph holds
// "apple" isolated plus "banana" and "cherry" joined by a heavily
// reinforced edge.
func testService(t *testing.T) *Service {
	t.Helper()
	c, err := colony.Open(colony.Options{Seed: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	g := c.Graph()
	g.AddNode("apple", "concept", core.Position{}, 0)
	b := g.AddNode("banana", "concept", core.Position{X: 1}, 0)
	ch := g.AddNode("cherry", "concept", core.Position{X: 2}, 0)
	for i := 0; i < 5; i++ {
		g.Wire(b, ch, 0.1, 0.2, uint64(i))
	}
	return NewService(c, nil)
}

func TestRecallHonorsExplicitAlphaZero(t *testing.T) {
	s := testService(t)
	ctx := context.Background()

	// 1. An explicit alpha of zero means pure graph structure: the
	// blend must collapse onto the graph score and the isolated but
	// lexically strong apple node must lose the top spot.
	zero := 0.0
	_, res, err := s.Recall(ctx, nil, RecallArgs{Query: "apple banana", Alpha: &zero})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if len(res.Results) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(res.Results))
	}
	if res.Results[0].Label != "banana" {
		t.Errorf("alpha=0 top result = %q, want banana", res.Results[0].Label)
	}
	for _, r := range res.Results {
		if math.Abs(r.FinalScore-r.GraphScore) > 1e-9 {
			t.Errorf("%s: final score %.4f ignores explicit alpha=0 (graph score %.4f)",
				r.Label, r.FinalScore, r.GraphScore)
		}
	}

	// 2. Leaving alpha unset still means the default blend, where the
	// lexical side carries weight again.
	_, res, err = s.Recall(ctx, nil, RecallArgs{Query: "apple banana"})
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	blended := false
	for _, r := range res.Results {
		if r.Label == "apple" && r.FinalScore > 0 {
			blended = true
		}
	}
	if !blended {
		t.Error("unset alpha behaved like alpha=0: apple scored zero")
	}
}

func TestRecallRejectsEmptyQuery(t *testing.T) {
	s := testService(t)
	if _, _, err := s.Recall(context.Background(), nil, RecallArgs{}); err == nil {
		t.Fatal("empty query accepted")
	}
}
