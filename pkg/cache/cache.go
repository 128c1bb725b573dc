// Package cache holds the authoritative in-memory working set of emitter
// records and batches their persistence so flash writes stay rare.
package cache

import (
	"fmt"
	"sync"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/emitter"
	"github.com/rfmap/rfmap/pkg/logx"
	"github.com/rfmap/rfmap/pkg/store"
)

// Config holds cache tuning parameters
type Config struct {
	// MaxIdleCycles is the number of sync cycles a record may go unseen
	// before it is evicted from the working set.
	MaxIdleCycles int `json:"max_idle_cycles"`
	// MaxResident is the safety-valve cap on resident records. Exceeding it
	// after eviction clears the whole working set; not expected in normal
	// operation.
	MaxResident int `json:"max_resident"`
	// Drift configures mobile-emitter drift detection on resident records.
	Drift *emitter.DriftConfig `json:"drift"`
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxIdleCycles: 30,
		MaxResident:   500,
		Drift:         emitter.DefaultDriftConfig(),
	}
}

// Cache is the single authoritative view over resident emitter records. Each
// exported operation runs under one mutual-exclusion section; the records
// themselves are mutated by the single worker between cache calls and carry
// no locking of their own.
type Cache struct {
	mu      sync.Mutex
	store   store.Store
	records map[string]*emitter.Record
	config  Config
	logger  *logx.Logger
}

// New creates a cache over the given row store.
func New(s store.Store, config Config, logger *logx.Logger) *Cache {
	if config.MaxIdleCycles <= 0 {
		config.MaxIdleCycles = DefaultConfig().MaxIdleCycles
	}
	if config.MaxResident <= 0 {
		config.MaxResident = DefaultConfig().MaxResident
	}
	return &Cache{
		store:   s,
		records: make(map[string]*emitter.Record),
		config:  config,
		logger:  logger,
	}
}

// BatchLoad fetches, in a single query, the persisted rows for every given
// identity not already resident, and creates fresh unknown records for ids
// with no row. It must run before the per-id Get calls of a new batch;
// loading rows one at a time is a flash-I/O anti-pattern this cache exists
// to prevent.
func (c *Cache) BatchLoad(ids []pkg.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	missing := make([]string, 0, len(ids))
	byKey := make(map[string]pkg.Identity, len(ids))
	for _, id := range ids {
		key := id.UniqueKey()
		if _, resident := c.records[key]; !resident {
			if _, queued := byKey[key]; !queued {
				missing = append(missing, key)
				byKey[key] = id
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}

	rows, err := c.store.Load(missing)
	if err != nil {
		return fmt.Errorf("batch load failed: %w", err)
	}

	for _, key := range missing {
		if row, ok := rows[key]; ok {
			c.records[key] = emitter.NewRecordFromRow(row, c.config.Drift, c.logger)
		} else {
			c.records[key] = emitter.NewRecord(byKey[key], c.config.Drift, c.logger)
		}
	}

	c.logger.Debug("cache batch load", "requested", len(ids), "loaded", len(rows),
		"created", len(missing)-len(rows), "resident", len(c.records))
	return nil
}

// Get returns the resident record for the identity, creating an unknown one
// if absent. It never touches persistence; BatchLoad is the only read path.
// The record's idle age resets to zero.
func (c *Cache) Get(id pkg.Identity) *emitter.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := id.UniqueKey()
	r, ok := c.records[key]
	if !ok {
		r = emitter.NewRecord(id, c.config.Drift, c.logger)
		c.records[key] = r
	}
	r.ResetIdle()
	return r
}

// Sync ages the working set, flushes every dirty record inside one
// persistence transaction, then evicts aged-out records. A flush failure
// rolls the transaction back and leaves every record's in-memory state
// untouched, so the next Sync retries the same work; dirty records are
// never evicted.
func (c *Cache) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncLocked()
}

func (c *Cache) syncLocked() error {
	var aged []string
	var dirty []*emitter.Record
	for key, r := range c.records {
		if r.BumpIdle() >= c.config.MaxIdleCycles {
			aged = append(aged, key)
		}
		if r.SyncNeeded() {
			dirty = append(dirty, r)
		}
	}

	if len(dirty) > 0 {
		if err := c.store.BeginTransaction(); err != nil {
			return err
		}
		for _, r := range dirty {
			if err := r.Sync(c.store); err != nil {
				if endErr := c.store.EndTransaction(false); endErr != nil {
					c.logger.Error("rollback failed", "error", endErr)
				}
				return fmt.Errorf("cache flush failed: %w", err)
			}
		}
		if err := c.store.EndTransaction(true); err != nil {
			return fmt.Errorf("cache flush commit failed: %w", err)
		}
		// Only now that the transaction is durable do the records move on.
		for _, r := range dirty {
			r.MarkSynced()
		}
	}

	for _, key := range aged {
		delete(c.records, key)
	}

	if len(c.records) > c.config.MaxResident {
		c.logger.Warn("working set over hard cap, clearing",
			"resident", len(c.records), "cap", c.config.MaxResident)
		c.records = make(map[string]*emitter.Record)
	}

	if len(dirty) > 0 || len(aged) > 0 {
		c.logger.Debug("cache sync", "flushed", len(dirty), "evicted", len(aged),
			"resident", len(c.records))
	}
	return nil
}

// Resident returns the number of records in the working set.
func (c *Cache) Resident() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Close flushes the working set, clears it and releases the persistence
// handle.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	syncErr := c.syncLocked()
	c.records = make(map[string]*emitter.Record)
	if err := c.store.Close(); err != nil {
		return err
	}
	return syncErr
}
