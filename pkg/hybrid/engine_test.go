package hybrid

import (
	"fmt"
	"testing"
	"time"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/topology"
)

// testColony returns a colony whose graph holds three concepts:
// "apple" isolated, "banana" and "cherry" joined by a heavily
// reinforced edge.
func testColony(t *testing.T) *colony.Colony {
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
	return c
}

func TestQueryAlphaExtremes(t *testing.T) {
	c := testColony(t)
	e := New(c, nil)

	// 1. Pure lexical: "apple" is the rarer term, so the apple node
	// outranks the well-connected banana node.
	lexical := e.Query("apple banana", Config{Alpha: 1, MaxResults: 10, CandidateMultiplier: 3})
	if len(lexical) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(lexical))
	}
	if lexical[0].Label != "apple" {
		t.Errorf("alpha=1 top result = %q, want apple", lexical[0].Label)
	}

	// 2. Pure graph: the isolated apple node scores zero structure,
	// the reinforced banana node rises to the top.
	structural := e.Query("apple banana", Config{Alpha: 0, MaxResults: 10, CandidateMultiplier: 3})
	if len(structural) < 2 {
		t.Fatalf("expected at least 2 results, got %d", len(structural))
	}
	if structural[0].Label != "banana" {
		t.Errorf("alpha=0 top result = %q, want banana", structural[0].Label)
	}
	for _, r := range structural {
		if r.Label == "apple" && r.GraphScore != 0 {
			t.Errorf("isolated node has graph score %.3f, want 0", r.GraphScore)
		}
	}
}

func TestQueryNeverOriginatesFromGraph(t *testing.T) {
	c := testColony(t)
	e := New(c, nil)

	// cherry is strongly connected but shares no term with the
	// query, so even alpha=0 must not surface it.
	results := e.Query("apple", Config{Alpha: 0, MaxResults: 10, CandidateMultiplier: 3})
	for _, r := range results {
		if r.Label == "cherry" {
			t.Error("graph-only node surfaced without lexical evidence")
		}
	}
}

func TestQueryEmptyAndStopwordOnly(t *testing.T) {
	c := testColony(t)
	e := New(c, nil)

	if got := e.Query("", DefaultConfig()); got != nil {
		t.Errorf("empty query returned %d results", len(got))
	}
	if got := e.Query("the and of", DefaultConfig()); got != nil {
		t.Errorf("stopword-only query returned %d results", len(got))
	}
}

func TestQueryTruncatesToMaxResults(t *testing.T) {
	c, err := colony.Open(colony.Options{Seed: 1})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer c.Close()

	g := c.Graph()
	prev := g.AddNode("fjord", "concept", core.Position{}, 0)
	for i := 0; i < 6; i++ {
		// a chain of nodes all carrying the query term
		id := g.AddNode(fmt.Sprintf("fjord basin %d", i), "concept", core.Position{X: float64(i)}, 0)
		g.Wire(prev, id, 0.1, 0.1, 0)
		prev = id
	}

	e := New(c, nil)
	results := e.Query("fjord", Config{Alpha: 0.5, MaxResults: 2, CandidateMultiplier: 3})
	if len(results) > 2 {
		t.Errorf("got %d results, want at most 2", len(results))
	}
}

func TestQueryScoresNormalizedAndOrdered(t *testing.T) {
	c := testColony(t)
	e := New(c, nil)

	results := e.Query("apple banana cherry", Config{Alpha: 0.5, MaxResults: 10, CandidateMultiplier: 3})
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for i, r := range results {
		if r.TFIDFScore < 0 || r.TFIDFScore > 1 {
			t.Errorf("tfidf score out of [0,1]: %.3f", r.TFIDFScore)
		}
		if r.GraphScore < 0 || r.GraphScore > 1 {
			t.Errorf("graph score out of [0,1]: %.3f", r.GraphScore)
		}
		if i > 0 && results[i-1].FinalScore < r.FinalScore {
			t.Error("results not in descending final-score order")
		}
	}
}

func TestQueryWaitsForColonyLock(t *testing.T) {
	c := testColony(t)
	e := New(c, nil)

	// 1. Park a holder inside the colony lock, the same lock a
	// running tick takes.
	entered := make(chan struct{})
	release := make(chan struct{})
	go func() {
		c.WithGraph(func(*topology.Graph) {
			close(entered)
			<-release
		})
	}()
	<-entered

	// 2. A query issued meanwhile must wait rather than read through.
	done := make(chan struct{})
	go func() {
		e.Query("apple banana", DefaultConfig())
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Query returned while the colony lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	// 3. And complete once the lock is released.
	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Query never returned after the lock was released")
	}
}
