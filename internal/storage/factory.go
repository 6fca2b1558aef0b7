package storage

import "fmt"

// New builds a SessionStore by kind: "file" for the binary frame
// snapshot, "sqlite" for the database backend.
func New(kind, path string) (SessionStore, error) {
	switch kind {
	case "file", "":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("storage: unknown store kind %q", kind)
	}
}
