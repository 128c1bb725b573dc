package emitter

import (
	"math"
	"time"

	"github.com/sajari/regression"
)

// DriftConfig controls mobile-emitter drift detection. A slowly moving
// emitter (bus AP crawling through town) can keep every individual fix
// inside the accuracy gates while its coverage creeps outward; a sustained
// positive trend in fix distance from the coverage center catches it before
// the box blows past the type's maximum range.
type DriftConfig struct {
	Enabled     bool    `json:"enabled"`
	MinSamples  int     `json:"min_samples"`   // samples before the trend is trusted
	WindowSize  int     `json:"window_size"`   // samples retained per emitter
	MaxSlopeMps float64 `json:"max_slope_mps"` // sustained outward speed that marks mobility
}

// DefaultDriftConfig returns default drift detection configuration
func DefaultDriftConfig() *DriftConfig {
	return &DriftConfig{
		Enabled:     true,
		MinSamples:  6,
		WindowSize:  16,
		MaxSlopeMps: 1.5,
	}
}

type driftSample struct {
	at   time.Time
	dist float64 // meters from coverage center
}

// driftTracker keeps a bounded window of fix-to-center distances and fits a
// least-squares line through them.
type driftTracker struct {
	config  *DriftConfig
	samples []driftSample
}

func newDriftTracker(config *DriftConfig) *driftTracker {
	return &driftTracker{config: config}
}

func (d *driftTracker) add(at time.Time, dist float64) {
	d.samples = append(d.samples, driftSample{at: at, dist: dist})
	if len(d.samples) > d.config.WindowSize {
		d.samples = d.samples[len(d.samples)-d.config.WindowSize:]
	}
}

// moving reports whether the fitted distance trend exceeds the configured
// slope. Degenerate windows (too few samples, zero time span, singular fit)
// never report movement.
func (d *driftTracker) moving() bool {
	if !d.config.Enabled || len(d.samples) < d.config.MinSamples {
		return false
	}

	t0 := d.samples[0].at
	span := d.samples[len(d.samples)-1].at.Sub(t0)
	if span <= 0 {
		return false
	}

	var r regression.Regression
	r.SetObserved("distance_m")
	r.SetVar(0, "elapsed_s")
	for _, s := range d.samples {
		r.Train(regression.DataPoint(s.dist, []float64{s.at.Sub(t0).Seconds()}))
	}
	if err := r.Run(); err != nil {
		return false
	}

	coeffs := r.GetCoeffs()
	if len(coeffs) < 2 {
		return false
	}
	slope := coeffs[1]
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return false
	}
	return slope > d.config.MaxSlopeMps
}
