// Package synthesis fuses a cycle's emitter coverage projections into one
// location: clustering to cull moved emitters, a signal-weighted average,
// and a median-robust refinement with an agreement safety check.
package synthesis

// Config holds the synthesis tuning constants. The values are empirically
// tuned against field traces; they are exposed here as named, overridable
// knobs rather than re-derived.
type Config struct {
	// CullToleranceFactor scales the pairwise accuracy sum that decides
	// whether two projections belong to the same cluster.
	CullToleranceFactor float64 `json:"cull_tolerance_factor"`
	// ImplausibleRadiusPenalty inflates the weight denominator of members
	// whose learned radius is smaller than their type's minimum range.
	ImplausibleRadiusPenalty float64 `json:"implausible_radius_penalty"`
	// AccuracyScaleFactor controls how far a member's accuracy is pulled
	// toward its type's minimum range as signal strength rises.
	AccuracyScaleFactor float64 `json:"accuracy_scale_factor"`
	// MinAccuracy floors the reported accuracy in meters.
	MinAccuracy float64 `json:"min_accuracy_m"`
	// SuspiciousInflation multiplies the reported accuracy when every
	// short-range member is suspicious, or a lone member's learned radius
	// is implausibly small.
	SuspiciousInflation float64 `json:"suspicious_inflation"`
	// MedianTrimFactor scales each member's own accuracy into its allowed
	// distance from the per-axis median point.
	MedianTrimFactor float64 `json:"median_trim_factor"`
	// MaxTrimFraction is the largest share of members the median step may
	// discard before its result is distrusted.
	MaxTrimFraction float64 `json:"max_trim_fraction"`
	// AccuracyRatioOverride prefers the median-trimmed candidate over the
	// untrimmed one when the untrimmed accuracy is this many times worse
	// and the two still agree.
	AccuracyRatioOverride float64 `json:"accuracy_ratio_override"`
}

// DefaultConfig returns the default synthesis configuration
func DefaultConfig() Config {
	return Config{
		CullToleranceFactor:      1.25,
		ImplausibleRadiusPenalty: 2.0,
		AccuracyScaleFactor:      0.7,
		MinAccuracy:              15.0,
		SuspiciousInflation:      1.5,
		MedianTrimFactor:         2.0,
		MaxTrimFraction:          0.20,
		AccuracyRatioOverride:    2.0,
	}
}
