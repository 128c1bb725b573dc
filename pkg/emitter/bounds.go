// Package emitter implements per-emitter coverage learning: the bounding
// geometry accumulator, the record status state machine, and the mobility
// blacklist policy.
package emitter

import (
	"github.com/rfmap/rfmap/pkg"
)

// Impossible extent sentinels; any real coordinate expands an empty box.
const (
	emptyNorth = -999.0
	emptySouth = 999.0
	emptyEast  = -999.0
	emptyWest  = 999.0
)

// Bounds is the minimal axis-aligned rectangle, in degrees, covering every
// position at which one emitter has been observed. It only ever grows while
// the emitter is alive; it is replaced wholesale only when coverage is
// relearned from scratch.
type Bounds struct {
	north float64
	south float64
	east  float64
	west  float64

	CenterLat float64
	CenterLon float64
	RadiusNS  float64 // meters
	RadiusEW  float64 // meters
}

// NewBounds returns an empty box with impossible extents so that the first
// Update always expands it.
func NewBounds() *Bounds {
	return &Bounds{
		north: emptyNorth,
		south: emptySouth,
		east:  emptyEast,
		west:  emptyWest,
	}
}

// NewBoundsFromRadii reconstructs a box from a persisted center and
// meter-scale radii pair.
func NewBoundsFromRadii(lat, lon, radiusNS, radiusEW float64) *Bounds {
	latDelta := radiusNS / pkg.MetersPerDegree
	lonDelta := radiusEW / (pkg.MetersPerDegree * pkg.LatitudeCosine(lat))
	b := &Bounds{
		north: lat + latDelta,
		south: lat - latDelta,
		east:  lon + lonDelta,
		west:  lon - lonDelta,
	}
	b.recompute()
	return b
}

// NewBoundsFromPoint starts a box covering a single fix and its accuracy
// circle.
func NewBoundsFromPoint(lat, lon, accuracy float64) *Bounds {
	return NewBoundsFromRadii(lat, lon, accuracy, accuracy)
}

// Update expands the box to cover the given point. Extents only ever grow;
// the center and radii are recomputed when they do. Returns whether the box
// actually changed.
func (b *Bounds) Update(lat, lon float64) bool {
	changed := false
	if lat > b.north {
		b.north = lat
		changed = true
	}
	if lat < b.south {
		b.south = lat
		changed = true
	}
	if lon > b.east {
		b.east = lon
		changed = true
	}
	if lon < b.west {
		b.west = lon
		changed = true
	}
	if changed {
		b.recompute()
	}
	return changed
}

// Contains reports whether the point lies strictly inside the box.
func (b *Bounds) Contains(lat, lon float64) bool {
	return lat > b.south && lat < b.north && lon > b.west && lon < b.east
}

// Radius returns the larger of the two meter-scale radii.
func (b *Bounds) Radius() float64 {
	if b.RadiusNS > b.RadiusEW {
		return b.RadiusNS
	}
	return b.RadiusEW
}

// recompute derives center and meter radii from the degree extents.
func (b *Bounds) recompute() {
	b.CenterLat = (b.north + b.south) / 2
	b.CenterLon = (b.east + b.west) / 2
	b.RadiusNS = (b.north - b.south) / 2 * pkg.MetersPerDegree
	b.RadiusEW = (b.east - b.west) / 2 * pkg.MetersPerDegree * pkg.LatitudeCosine(b.CenterLat)
}
