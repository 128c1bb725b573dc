// Package store persists learned emitter coverage in SQLite. The coverage
// engine treats it as a narrow row store: load, insert, update, invalidate
// and drop, bracketed by one flush transaction per cache sync.
package store

import (
	"errors"

	"github.com/rfmap/rfmap/pkg"
)

// InvalidRadius is the degenerate radius marker written by Invalidate. A row
// carrying it records that the emitter was blacklisted for exceeding its
// maximum range, so its coverage is never relearned from the row.
const InvalidRadius = -1.0

// ErrNotFound is returned by LoadOne when no row exists for the key.
var ErrNotFound = errors.New("store: row not found")

// Row is one persisted emitter coverage record.
type Row struct {
	Key       string
	Type      pkg.EmitterType
	Latitude  float64
	Longitude float64
	RadiusNS  float64
	RadiusEW  float64
	Label     string
}

// Invalidated reports whether the row carries the degenerate radius marker.
func (r Row) Invalidated() bool {
	return r.RadiusNS < 0 || r.RadiusEW < 0
}

// Store is the persistence contract for emitter coverage rows plus the
// small settings table used for learned device corrections.
type Store interface {
	// Load fetches every row for the given keys in a single query.
	// Missing keys are simply absent from the result.
	Load(keys []string) (map[string]Row, error)
	// LoadOne fetches a single row, or ErrNotFound.
	LoadOne(key string) (*Row, error)
	Insert(row Row) error
	Update(row Row) error
	// Invalidate marks the row's radii with the degenerate marker.
	Invalidate(key string) error
	Drop(key string) error

	// BeginTransaction opens the flush transaction. A nested begin is a
	// warning, not an error.
	BeginTransaction() error
	// EndTransaction commits when commit is true, rolls back otherwise.
	EndTransaction(commit bool) error

	// GetSetting and PutSetting access the settings key-value table.
	GetSetting(key string) (string, bool, error)
	PutSetting(key, value string) error

	Close() error
}
