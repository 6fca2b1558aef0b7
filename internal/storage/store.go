// Package storage persists colony snapshots. Two backends implement
// the same round-trip contract: a binary frame file and a SQLite
// database. A failed save or load never touches live colony state;
// the caller decides what to do with the error.
package storage

import (
	"context"
	"errors"

	"github.com/clemens865/phago/pkg/core"
)

var (
	// ErrNotFound means no snapshot has been saved yet.
	ErrNotFound = errors.New("storage: no snapshot")
	// ErrCorruptSnapshot means the stored snapshot failed validation
	// (bad magic, checksum mismatch, truncated records).
	ErrCorruptSnapshot = errors.New("storage: corrupt snapshot")
)

// SessionStore saves and restores colony snapshots.
type SessionStore interface {
	// Save persists the snapshot atomically: a reader never observes
	// a partially written snapshot.
	Save(ctx context.Context, snap *core.Snapshot) error
	// Load returns the last saved snapshot, ErrNotFound when none
	// exists, or an error wrapping ErrCorruptSnapshot when the data
	// fails validation.
	Load(ctx context.Context) (*core.Snapshot, error)
	Close() error
}
