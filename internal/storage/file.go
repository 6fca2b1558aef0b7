package storage

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/metrics"
	"github.com/clemens865/phago/pkg/persistence"
)

// FileStore persists snapshots as a binary frame file. Saves go
// through a temp file in the same directory followed by an atomic
// rename, so a crash mid-save leaves the previous snapshot intact.
type FileStore struct {
	path string
}

// NewFileStore returns a store writing to path. The parent directory
// is created if missing.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create snapshot dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Save(ctx context.Context, snap *core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.tmp")
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storage: create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	fw := persistence.NewFrameWriter(bw)

	meta := persistence.Meta{
		Tick:      snap.Tick,
		NodeCount: uint64(len(snap.Nodes)),
		EdgeCount: uint64(len(snap.Edges)),
	}
	if err := fw.WriteFrame(persistence.OpCodeMeta, persistence.EncodeMeta(meta)); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: write meta frame: %w", err)
	}
	for _, n := range snap.Nodes {
		if err := fw.WriteFrame(persistence.OpCodeNode, persistence.EncodeNode(n)); err != nil {
			tmp.Close()
			return fmt.Errorf("storage: write node frame: %w", err)
		}
	}
	for _, e := range snap.Edges {
		if err := fw.WriteFrame(persistence.OpCodeEdge, persistence.EncodeEdge(e)); err != nil {
			tmp.Close()
			return fmt.Errorf("storage: write edge frame: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: flush snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storage: replace snapshot: %w", err)
	}
	metrics.SnapshotsTotal.WithLabelValues("save", "ok").Inc()
	return nil
}

func (s *FileStore) Load(ctx context.Context) (*core.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: open snapshot: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	op, payload, err := persistence.ReadFrame(r)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if op != persistence.OpCodeMeta {
		return nil, fmt.Errorf("%w: first frame is 0x%02x, want meta", ErrCorruptSnapshot, op)
	}
	meta, err := persistence.DecodeMeta(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	snap := &core.Snapshot{
		Tick:  meta.Tick,
		Nodes: make([]core.ConceptNode, 0, meta.NodeCount),
		Edges: make([]core.HebbianEdge, 0, meta.EdgeCount),
	}
	for {
		op, payload, err := persistence.ReadFrame(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			metrics.SnapshotsTotal.WithLabelValues("load", "error").Inc()
			return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		switch op {
		case persistence.OpCodeNode:
			n, err := persistence.DecodeNode(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
			}
			snap.Nodes = append(snap.Nodes, n)
		case persistence.OpCodeEdge:
			e, err := persistence.DecodeEdge(payload)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
			}
			snap.Edges = append(snap.Edges, e)
		default:
			return nil, fmt.Errorf("%w: unknown opcode 0x%02x", ErrCorruptSnapshot, op)
		}
	}

	if uint64(len(snap.Nodes)) != meta.NodeCount || uint64(len(snap.Edges)) != meta.EdgeCount {
		metrics.SnapshotsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("%w: record counts do not match meta (%d/%d nodes, %d/%d edges)",
			ErrCorruptSnapshot, len(snap.Nodes), meta.NodeCount, len(snap.Edges), meta.EdgeCount)
	}
	metrics.SnapshotsTotal.WithLabelValues("load", "ok").Inc()
	return snap, nil
}

func (s *FileStore) Close() error { return nil }
