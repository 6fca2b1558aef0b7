package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/clemens865/phago/pkg/core"
)

func sampleSnapshot() *core.Snapshot {
	return &core.Snapshot{
		Tick: 137,
		Nodes: []core.ConceptNode{
			{ID: 0, Label: "membrane", Category: "concept", AccessCount: 5, Position: core.Position{X: 1.5, Y: -2.25}, CreatedTick: 3},
			{ID: 1, Label: "protein", Category: "concept", AccessCount: 2, Position: core.Position{X: 0.125, Y: 7}, CreatedTick: 9},
			{ID: 4, Label: "transport", Category: "concept", CreatedTick: 40},
		},
		Edges: []core.HebbianEdge{
			{A: 0, B: 1, Weight: 0.35, CoActivations: 4, CreatedTick: 9, LastActivatedTick: 120},
			{A: 1, B: 4, Weight: 0.1, CoActivations: 1, CreatedTick: 40, LastActivatedTick: 40},
		},
	}
}

// Both backends must satisfy the same round-trip contract: every
// node and edge field plus the tick counter recovered exactly.
func TestRoundTripAllBackends(t *testing.T) {
	dir := t.TempDir()
	backends := map[string]string{
		"file":   filepath.Join(dir, "colony.snapshot"),
		"sqlite": filepath.Join(dir, "colony.db"),
	}

	for kind, path := range backends {
		t.Run(kind, func(t *testing.T) {
			store, err := New(kind, path)
			if err != nil {
				t.Fatalf("New(%q): %v", kind, err)
			}
			defer store.Close()

			ctx := context.Background()
			want := sampleSnapshot()
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			if got.Tick != want.Tick {
				t.Errorf("tick = %d, want %d (must be restored, not reset)", got.Tick, want.Tick)
			}
			if !reflect.DeepEqual(got.Nodes, want.Nodes) {
				t.Errorf("nodes differ:\n got %+v\nwant %+v", got.Nodes, want.Nodes)
			}
			if !reflect.DeepEqual(got.Edges, want.Edges) {
				t.Errorf("edges differ:\n got %+v\nwant %+v", got.Edges, want.Edges)
			}
		})
	}
}

func TestLoadWithoutSnapshot(t *testing.T) {
	store, err := New("file", filepath.Join(t.TempDir(), "missing.snapshot"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load on empty store = %v, want ErrNotFound", err)
	}
}

func TestSaveOverwritesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.snapshot")
	store, err := New("file", path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	second := &core.Snapshot{Tick: 9000, Nodes: []core.ConceptNode{{ID: 7, Label: "later", Category: "concept"}}}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tick != 9000 || len(got.Nodes) != 1 || len(got.Edges) != 0 {
		t.Errorf("load after overwrite = %+v, want second snapshot", got)
	}
}

func TestCorruptFileIsDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.snapshot")
	store, err := New("file", path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}

	// Flip a byte in the middle of the file: the CRC must catch it.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)/2] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("Load of corrupted file = %v, want ErrCorruptSnapshot", err)
	}
}

func TestTruncatedFileIsDetected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colony.snapshot")
	store, err := New("file", path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-5], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, ErrCorruptSnapshot) {
		t.Errorf("Load of truncated file = %v, want ErrCorruptSnapshot", err)
	}
}

func TestUnknownKindRejected(t *testing.T) {
	if _, err := New("redis", "whatever"); err == nil {
		t.Error("expected an error for an unknown store kind")
	}
}
