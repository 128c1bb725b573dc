package synthesis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rfmap/rfmap/pkg"
)

// Fuse turns one reporting interval's projections into a single location, or
// nil when no sufficiently consistent subset exists. Callers treat nil as
// routine: it is the normal answer during startup and low-visibility periods.
func Fuse(locs []pkg.RfLocation, config Config) *pkg.FusedLocation {
	culled := Cull(locs, config)
	if len(culled) == 0 {
		return nil
	}

	medLat, medLon := medianPoint(medianSubset(locs))

	trimmed := make([]pkg.RfLocation, 0, len(locs))
	for _, loc := range locs {
		dist := pkg.ApproxDistance(loc.Latitude, loc.Longitude, medLat, medLon)
		if dist <= config.MedianTrimFactor*loc.Accuracy {
			trimmed = append(trimmed, loc)
		}
	}

	// The common case: the median trimmed nothing, so the plain weighted
	// average of everything is already robust.
	if len(trimmed) == len(locs) {
		return average(locs, config)
	}

	candTrimmed := average(trimmed, config)
	candAll := average(locs, config)
	candCulled := average(culled, config)

	if candTrimmed != nil && medianSafe(candTrimmed, candAll, locs, trimmed, config) {
		return candTrimmed
	}

	// Independent per-axis medians are not geometrically robust: with two
	// well-separated tight clusters they can land in the void between them.
	// When the safety check trips, fall back to whichever candidate sits
	// closest to the candidates' centroid.
	candidates := make([]*pkg.FusedLocation, 0, 3)
	for _, c := range []*pkg.FusedLocation{candTrimmed, candAll, candCulled} {
		if c != nil {
			candidates = append(candidates, c)
		}
	}
	chosen := closestToCentroid(candidates)

	// One override: refuse a much sloppier untrimmed result when it still
	// agrees with the trimmed one within its own accuracy.
	if chosen == candAll && candTrimmed != nil &&
		candAll.Accuracy > config.AccuracyRatioOverride*candTrimmed.Accuracy &&
		fusedDistance(candTrimmed, candAll) <= candAll.Accuracy {
		return candTrimmed
	}
	return chosen
}

// medianSubset picks the members whose per-axis medians anchor the trim:
// non-suspicious short-range members when there are enough of them, then any
// short-range members, then everything.
func medianSubset(locs []pkg.RfLocation) []pkg.RfLocation {
	const minSubset = 3

	var shortRange, trusted []pkg.RfLocation
	for _, loc := range locs {
		if loc.Type.ShortRange() {
			shortRange = append(shortRange, loc)
			if !loc.Suspicious {
				trusted = append(trusted, loc)
			}
		}
	}
	if len(trusted) >= minSubset {
		return trusted
	}
	if len(shortRange) >= minSubset {
		return shortRange
	}
	return locs
}

// medianPoint computes independent per-axis medians.
func medianPoint(locs []pkg.RfLocation) (lat, lon float64) {
	lats := make([]float64, len(locs))
	lons := make([]float64, len(locs))
	for i, loc := range locs {
		lats[i] = loc.Latitude
		lons[i] = loc.Longitude
	}
	sort.Float64s(lats)
	sort.Float64s(lons)
	return stat.Quantile(0.5, stat.Empirical, lats, nil),
		stat.Quantile(0.5, stat.Empirical, lons, nil)
}

// medianSafe is the agreement check guarding the median-trimmed result.
func medianSafe(trimmedResult, allResult *pkg.FusedLocation, locs, trimmed []pkg.RfLocation, config Config) bool {
	if allResult != nil {
		dist := fusedDistance(trimmedResult, allResult)
		if dist > trimmedResult.Accuracy || dist > allResult.Accuracy {
			return false
		}
	}

	trimmedOut := float64(len(locs)-len(trimmed)) / float64(len(locs))
	if trimmedOut > config.MaxTrimFraction {
		return false
	}

	shortIn, shortKept := 0, 0
	for _, loc := range locs {
		if loc.Type.ShortRange() {
			shortIn++
		}
	}
	for _, loc := range trimmed {
		if loc.Type.ShortRange() {
			shortKept++
		}
	}
	if shortIn > 0 && shortKept == 0 {
		return false
	}
	return true
}

// closestToCentroid returns the candidate nearest the mean position of all
// candidates.
func closestToCentroid(candidates []*pkg.FusedLocation) *pkg.FusedLocation {
	if len(candidates) == 0 {
		return nil
	}
	lats := make([]float64, len(candidates))
	lons := make([]float64, len(candidates))
	for i, c := range candidates {
		lats[i] = c.Latitude
		lons[i] = c.Longitude
	}
	centLat := stat.Mean(lats, nil)
	centLon := stat.Mean(lons, nil)

	best := candidates[0]
	bestDist := pkg.ApproxDistance(best.Latitude, best.Longitude, centLat, centLon)
	for _, c := range candidates[1:] {
		d := pkg.ApproxDistance(c.Latitude, c.Longitude, centLat, centLon)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func fusedDistance(a, b *pkg.FusedLocation) float64 {
	return pkg.ApproxDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
