package synthesis

import (
	"math"
	"time"

	"github.com/rfmap/rfmap/pkg"
)

// average computes the signal-weighted mean of the projections and an
// accuracy estimate from their weighted spread. Returns nil for empty input.
func average(locs []pkg.RfLocation, config Config) *pkg.FusedLocation {
	if len(locs) == 0 {
		return nil
	}

	type memberTerms struct {
		weight float64
		accVar float64 // accuracy used in the variance term
	}

	terms := make([]memberTerms, len(locs))
	hasShortRange := false
	var sumW, sumLat, sumLon float64
	var latest time.Time

	for i, loc := range locs {
		ch := pkg.CharacteristicsFor(loc.Type)
		if loc.Type.ShortRange() {
			hasShortRange = true
		}

		signal := float64(pkg.ClampSignal(loc.Signal))
		if loc.Suspicious {
			// Down-weighted, not discarded.
			signal = math.Max(signal/2, pkg.MinSignal)
		}

		// A learned radius below the technology's plausible minimum means
		// the coverage is undersampled; trust it less.
		accuracyPart := loc.Accuracy
		if loc.Radius < ch.MinRange {
			accuracyPart *= config.ImplausibleRadiusPenalty
		}
		weight := signal / accuracyPart

		// Stronger signal means the device sits well inside the coverage
		// area, so the accuracy contribution shrinks toward the type floor,
		// never below it.
		accVar := loc.Accuracy
		if loc.Accuracy > ch.MinRange {
			signalFrac := (signal - pkg.MinSignal) / (pkg.MaxSignal - pkg.MinSignal)
			accVar = loc.Accuracy - (loc.Accuracy-ch.MinRange)*config.AccuracyScaleFactor*signalFrac
			if accVar < ch.MinRange {
				accVar = ch.MinRange
			}
		}

		terms[i] = memberTerms{weight: weight, accVar: accVar}
		sumW += weight
		sumLat += weight * loc.Latitude
		sumLon += weight * loc.Longitude
		if loc.Time.After(latest) {
			latest = loc.Time
		}
	}

	meanLat := sumLat / sumW
	meanLon := sumLon / sumW
	cosLat := pkg.LatitudeCosine(meanLat)

	var accuracy float64
	if len(locs) == 1 {
		// No deviations to speak of; the member's own (signal-adjusted)
		// accuracy is the estimate.
		accuracy = terms[0].accVar
	} else {
		var varLat, varLon float64
		for i, loc := range locs {
			devLat := (loc.Latitude - meanLat) * pkg.MetersPerDegree
			devLon := (loc.Longitude - meanLon) * pkg.MetersPerDegree * cosLat

			dLat, dLon := devLat, devLon
			if hasShortRange {
				// With WiFi-class data present, each member contributes at
				// least its own accuracy; this keeps the estimate realistic
				// instead of collapsing on near-coincident boxes.
				dLat = math.Max(terms[i].accVar, math.Abs(devLat))
				dLon = math.Max(terms[i].accVar, math.Abs(devLon))
			}

			w2 := terms[i].weight * terms[i].weight
			varLat += w2 * dLat * dLat
			varLon += w2 * dLon * dLon
		}
		// Variance of the weighted mean: normalized by the squared sum of
		// weights, not the sum of squares.
		varLat /= sumW * sumW
		varLon /= sumW * sumW
		accuracy = math.Sqrt(varLat + varLon)
	}
	if accuracy < config.MinAccuracy {
		accuracy = config.MinAccuracy
	}

	if shouldInflate(locs) {
		accuracy *= config.SuspiciousInflation
	}

	return &pkg.FusedLocation{
		Latitude:  meanLat,
		Longitude: meanLon,
		Accuracy:  accuracy,
		Time:      latest,
		Sources:   len(locs),
	}
}

// shouldInflate reports the low-confidence cases: every short-range member
// suspicious, or a single member with an implausibly small learned radius.
func shouldInflate(locs []pkg.RfLocation) bool {
	shortRange := 0
	shortRangeSuspicious := 0
	for _, loc := range locs {
		if loc.Type.ShortRange() {
			shortRange++
			if loc.Suspicious {
				shortRangeSuspicious++
			}
		}
	}
	if shortRange > 0 && shortRange == shortRangeSuspicious {
		return true
	}
	if len(locs) == 1 {
		ch := pkg.CharacteristicsFor(locs[0].Type)
		if locs[0].Radius < ch.MinRange {
			return true
		}
	}
	return false
}
