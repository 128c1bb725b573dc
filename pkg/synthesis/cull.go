package synthesis

import (
	"github.com/rfmap/rfmap/pkg"
)

// Cull clusters the projections by pairwise planar distance and returns the
// largest mutually consistent group, or nil when no group is large enough to
// trust. Emitters that moved since their coverage was learned land far from
// the true cluster and fall out here.
func Cull(locs []pkg.RfLocation, config Config) []pkg.RfLocation {
	if len(locs) == 0 {
		return nil
	}
	if len(locs) == 1 {
		if !locs[0].Type.Valid() {
			return nil
		}
		return locs
	}

	var best []pkg.RfLocation
	for i := range locs {
		group := []pkg.RfLocation{locs[i]}
		for j := range locs {
			if j == i {
				continue
			}
			tolerance := config.CullToleranceFactor * (locs[i].Accuracy + locs[j].Accuracy)
			dist := pkg.ApproxDistance(locs[i].Latitude, locs[i].Longitude,
				locs[j].Latitude, locs[j].Longitude)
			if dist <= tolerance {
				group = append(group, locs[j])
			}
		}
		if len(group) > len(best) {
			best = group
		}
	}

	// The group stands only if it is large enough for at least one member's
	// technology.
	for _, member := range best {
		if len(best) >= member.MinGroupSize {
			return best
		}
	}
	return nil
}
