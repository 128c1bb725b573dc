package emitter

import (
	"time"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/logx"
	"github.com/rfmap/rfmap/pkg/store"
)

const (
	// MaxFixObservationSkew is the largest time difference between a trusted
	// fix and the most recent observation for which the fix can still be
	// assumed to describe where the emitter was heard.
	MaxFixObservationSkew = 10 * time.Second

	// FarFixFactor scales the distance beyond which a poor-accuracy fix is
	// let through anyway, specifically so a far-away emitter gets
	// blacklisted instead of silently ignored.
	FarFixFactor = 2.0
)

// Record is one emitter's learned coverage, lifecycle status and label
// policy. Records are owned by the cache while resident; only one worker
// mutates a record between cache operations.
type Record struct {
	Identity pkg.Identity
	Bounds   *Bounds // nil until coverage is learned
	Status   Status
	Label    string
	// BlacklistReason records what condemned a blacklisted record.
	BlacklistReason string

	LastObservation *pkg.Observation

	idleAge int
	// rowCoverage is true while the backing persisted row still holds live
	// coverage for this emitter.
	rowCoverage bool

	drift  *driftTracker
	logger *logx.Logger
}

// NewRecord creates an unknown record for an emitter first seen this cycle.
func NewRecord(id pkg.Identity, driftConfig *DriftConfig, logger *logx.Logger) *Record {
	if driftConfig == nil {
		driftConfig = DefaultDriftConfig()
	}
	return &Record{
		Identity: id,
		Status:   StatusUnknown,
		drift:    newDriftTracker(driftConfig),
		logger:   logger,
	}
}

// NewRecordFromRow rebuilds a record from its persisted row. Rows carrying
// the degenerate radius marker load as blacklisted with no coverage so the
// emitter is never relearned.
func NewRecordFromRow(row store.Row, driftConfig *DriftConfig, logger *logx.Logger) *Record {
	r := NewRecord(pkg.Identity{ID: rawID(row), Type: row.Type}, driftConfig, logger)
	r.Label = row.Label
	if row.Invalidated() {
		r.Status = StatusBlacklisted
		return r
	}
	r.Bounds = NewBoundsFromRadii(row.Latitude, row.Longitude, row.RadiusNS, row.RadiusEW)
	r.Status = StatusCached
	r.rowCoverage = true
	return r
}

// rawID strips the band prefix WLAN keys carry in storage.
func rawID(row store.Row) string {
	prefix := string(row.Type) + ":"
	if row.Type.IsWLAN() && len(row.Key) > len(prefix) {
		return row.Key[len(prefix):]
	}
	return row.Key
}

// Observe records the latest scan result for this emitter. A label change
// re-runs the blacklist check; a newly blacklisted emitter loses its
// coverage on the spot.
func (r *Record) Observe(obs pkg.Observation) {
	obs.Signal = pkg.ClampSignal(obs.Signal)
	r.LastObservation = &obs

	if obs.Label != "" && obs.Label != r.Label {
		r.Label = obs.Label
		if r.Status != StatusBlacklisted && BlacklistedLabel(r.Label, r.Identity) {
			r.blacklist("label")
		}
	}
}

// UpdateLocation folds a trusted fix into the emitter's coverage, walking
// the status machine as a side effect.
func (r *Record) UpdateLocation(fix pkg.Fix) {
	if r.Status == StatusBlacklisted {
		return
	}
	// Coverage can only be attributed to a fix captured together with an
	// observation of this emitter.
	if r.LastObservation == nil {
		return
	}
	skew := fix.Time.Sub(r.LastObservation.Time)
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxFixObservationSkew {
		return
	}

	ch := pkg.CharacteristicsFor(r.Identity.Type)
	if fix.Accuracy > ch.RequiredFixAccuracy {
		// A fix too sloppy to map coverage still goes through when the
		// emitter is hopelessly far from it: that union blacklists the
		// emitter instead of leaving a mobile one on the books.
		if r.Bounds == nil {
			return
		}
		dist := pkg.ApproxDistance(fix.Latitude, fix.Longitude, r.Bounds.CenterLat, r.Bounds.CenterLon)
		if dist <= FarFixFactor*(ch.MaxRange+fix.Accuracy) {
			return
		}
	}

	if r.Bounds == nil {
		r.Bounds = NewBoundsFromPoint(fix.Latitude, fix.Longitude, fix.Accuracy)
		r.transition(StatusNew)
		r.noteDrift(fix)
		return
	}

	changed := r.Bounds.Update(fix.Latitude, fix.Longitude)
	if changed && r.Bounds.Radius() > ch.MaxRange {
		r.blacklist("max_range")
		return
	}
	if changed {
		r.transition(StatusChanged)
	}
	r.noteDrift(fix)
}

// noteDrift feeds the drift detector and blacklists on a sustained outward
// trend.
func (r *Record) noteDrift(fix pkg.Fix) {
	if r.Bounds == nil {
		return
	}
	dist := pkg.ApproxDistance(fix.Latitude, fix.Longitude, r.Bounds.CenterLat, r.Bounds.CenterLon)
	r.drift.add(fix.Time, dist)
	if r.drift.moving() {
		r.blacklist("mobility_drift")
	}
}

// blacklist discards coverage and moves the record to its terminal status.
func (r *Record) blacklist(reason string) {
	r.Bounds = nil
	r.BlacklistReason = reason
	if r.logger != nil {
		r.logger.LogStateChange("emitter", r.Status.String(), StatusBlacklisted.String(), reason,
			map[string]interface{}{"key": r.Identity.UniqueKey()})
	}
	r.Status = Transition(r.Status, StatusBlacklisted)
}

// transition requests a status change through the legal-transition table.
// Illegal requests are dropped, not errors.
func (r *Record) transition(to Status) {
	next := Transition(r.Status, to)
	if next == r.Status && r.Status != to && r.logger != nil {
		r.logger.Debug("illegal status transition dropped",
			"key", r.Identity.UniqueKey(), "from", r.Status.String(), "to", to.String())
	}
	r.Status = next
}

// SyncNeeded reports whether the record has anything to flush.
func (r *Record) SyncNeeded() bool {
	switch r.Status {
	case StatusNew, StatusChanged:
		return true
	case StatusBlacklisted:
		return r.rowCoverage
	}
	return false
}

// Sync performs this record's single persistence action. It deliberately
// leaves the in-memory status untouched: the cache applies MarkSynced only
// after the whole flush transaction commits, so a failed flush retries
// cleanly.
func (r *Record) Sync(s store.Store) error {
	switch r.Status {
	case StatusNew:
		return s.Insert(r.row())
	case StatusChanged:
		return s.Update(r.row())
	case StatusBlacklisted:
		if !r.rowCoverage {
			return nil
		}
		// Re-check the label: an emitter blacklisted by identity has no
		// business in the database at all, while one that merely outgrew
		// its range keeps a poisoned row so it is not relearned.
		if BlacklistedLabel(r.Label, r.Identity) {
			return s.Drop(r.Identity.UniqueKey())
		}
		return s.Invalidate(r.Identity.UniqueKey())
	}
	return nil
}

// MarkSynced applies the post-flush bookkeeping for a record whose Sync
// action was committed.
func (r *Record) MarkSynced() {
	switch r.Status {
	case StatusNew, StatusChanged:
		r.Status = Transition(r.Status, StatusCached)
		r.rowCoverage = true
	case StatusBlacklisted:
		r.rowCoverage = false
	}
}

// row builds the persisted form of the current coverage.
func (r *Record) row() store.Row {
	return store.Row{
		Key:       r.Identity.UniqueKey(),
		Type:      r.Identity.Type,
		Latitude:  r.Bounds.CenterLat,
		Longitude: r.Bounds.CenterLon,
		RadiusNS:  r.Bounds.RadiusNS,
		RadiusEW:  r.Bounds.RadiusEW,
		Label:     r.Label,
	}
}

// Location projects the record into a synthesis input, or nil when the
// emitter was never observed, is blacklisted, or has no coverage yet.
func (r *Record) Location() *pkg.RfLocation {
	if r.LastObservation == nil || r.Status == StatusBlacklisted || r.Bounds == nil {
		return nil
	}
	ch := pkg.CharacteristicsFor(r.Identity.Type)
	accuracy := r.Bounds.Radius()
	if accuracy < ch.MinRange {
		accuracy = ch.MinRange
	}
	return &pkg.RfLocation{
		Type:         r.Identity.Type,
		Key:          r.Identity.UniqueKey(),
		Latitude:     r.Bounds.CenterLat,
		Longitude:    r.Bounds.CenterLon,
		Accuracy:     accuracy,
		Signal:       r.LastObservation.Signal,
		Suspicious:   r.LastObservation.Suspicious,
		Radius:       r.Bounds.Radius(),
		Time:         r.LastObservation.Time,
		MinGroupSize: ch.MinGroupSize,
	}
}

// BumpIdle increments and returns the idle-cycle counter.
func (r *Record) BumpIdle() int {
	r.idleAge++
	return r.idleAge
}

// ResetIdle zeroes the idle-cycle counter.
func (r *Record) ResetIdle() {
	r.idleAge = 0
}
