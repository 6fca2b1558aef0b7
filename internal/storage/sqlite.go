package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/clemens865/phago/pkg/core"
	"github.com/clemens865/phago/pkg/metrics"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id           INTEGER PRIMARY KEY,
	label        TEXT NOT NULL,
	category     TEXT NOT NULL,
	access_count INTEGER NOT NULL,
	x            REAL NOT NULL,
	y            REAL NOT NULL,
	created_tick INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS edges (
	a                   INTEGER NOT NULL,
	b                   INTEGER NOT NULL,
	weight              REAL NOT NULL,
	co_activations      INTEGER NOT NULL,
	created_tick        INTEGER NOT NULL,
	last_activated_tick INTEGER NOT NULL,
	PRIMARY KEY (a, b)
);
`

// SQLiteStore persists snapshots in a SQLite database. Saves replace
// the stored graph inside one transaction, so readers see either the
// old snapshot or the new one, never a mix.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) the database at
// path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap *core.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storage: begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM nodes`); err != nil {
		return fmt.Errorf("storage: clear nodes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM edges`); err != nil {
		return fmt.Errorf("storage: clear edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('tick', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		int64(snap.Tick)); err != nil {
		return fmt.Errorf("storage: save tick: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, label, category, access_count, x, y, created_tick)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare node insert: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range snap.Nodes {
		if _, err := nodeStmt.ExecContext(ctx,
			int64(n.ID), n.Label, n.Category, int64(n.AccessCount),
			n.Position.X, n.Position.Y, int64(n.CreatedTick)); err != nil {
			return fmt.Errorf("storage: insert node %d: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (a, b, weight, co_activations, created_tick, last_activated_tick)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage: prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range snap.Edges {
		if _, err := edgeStmt.ExecContext(ctx,
			int64(e.A), int64(e.B), e.Weight, int64(e.CoActivations),
			int64(e.CreatedTick), int64(e.LastActivatedTick)); err != nil {
			return fmt.Errorf("storage: insert edge %d-%d: %w", e.A, e.B, err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.SnapshotsTotal.WithLabelValues("save", "error").Inc()
		return fmt.Errorf("storage: commit save: %w", err)
	}
	metrics.SnapshotsTotal.WithLabelValues("save", "ok").Inc()
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*core.Snapshot, error) {
	var tick int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'tick'`).Scan(&tick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("load", "error").Inc()
		return nil, fmt.Errorf("storage: load tick: %w", err)
	}

	snap := &core.Snapshot{Tick: uint64(tick)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, category, access_count, x, y, created_tick
		FROM nodes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage: load nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n core.ConceptNode
		var id, access, created int64
		if err := rows.Scan(&id, &n.Label, &n.Category, &access, &n.Position.X, &n.Position.Y, &created); err != nil {
			return nil, fmt.Errorf("%w: node row: %v", ErrCorruptSnapshot, err)
		}
		n.ID = core.NodeID(id)
		n.AccessCount = uint64(access)
		n.CreatedTick = uint64(created)
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: scan nodes: %w", err)
	}

	erows, err := s.db.QueryContext(ctx, `
		SELECT a, b, weight, co_activations, created_tick, last_activated_tick
		FROM edges ORDER BY a, b`)
	if err != nil {
		return nil, fmt.Errorf("storage: load edges: %w", err)
	}
	defer erows.Close()
	for erows.Next() {
		var e core.HebbianEdge
		var a, b, co, created, last int64
		if err := erows.Scan(&a, &b, &e.Weight, &co, &created, &last); err != nil {
			return nil, fmt.Errorf("%w: edge row: %v", ErrCorruptSnapshot, err)
		}
		e.A = core.NodeID(a)
		e.B = core.NodeID(b)
		e.CoActivations = uint64(co)
		e.CreatedTick = uint64(created)
		e.LastActivatedTick = uint64(last)
		snap.Edges = append(snap.Edges, e)
	}
	if err := erows.Err(); err != nil {
		return nil, fmt.Errorf("storage: scan edges: %w", err)
	}

	metrics.SnapshotsTotal.WithLabelValues("load", "ok").Inc()
	return snap, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
