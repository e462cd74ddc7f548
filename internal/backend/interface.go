// Package backend selects and constructs the data store backing the
// service.
package backend

import (
	"walletbook/internal/store"
)

// CleanupFunc releases a backend's resources on shutdown.
type CleanupFunc func() error

// Result contains the opened store and its optional cleanup.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

// Type names a supported backend.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is supported.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
