package synthesis

import (
	"math"
	"testing"
	"time"

	"github.com/rfmap/rfmap/pkg"
)

func rf(t pkg.EmitterType, lat, lon, acc float64, sig int) pkg.RfLocation {
	ch := pkg.CharacteristicsFor(t)
	return pkg.RfLocation{
		Type:         t,
		Key:          "test",
		Latitude:     lat,
		Longitude:    lon,
		Accuracy:     acc,
		Signal:       sig,
		Radius:       acc,
		Time:         time.Now(),
		MinGroupSize: ch.MinGroupSize,
	}
}

func TestCullKeepsTightCluster(t *testing.T) {
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.3301, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.3302, 18.06, 50, 20),
	}
	got := Cull(locs, DefaultConfig())
	if len(got) != 3 {
		t.Fatalf("tight cluster should survive whole, got %d members", len(got))
	}
}

func TestCullIsolatesDistantOutlier(t *testing.T) {
	// Three tight members plus one far beyond 1.25x the accuracy sums.
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.3301, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.3302, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.3400, 18.06, 50, 20), // ~1.1km away
	}
	got := Cull(locs, DefaultConfig())
	if len(got) != 3 {
		t.Fatalf("outlier should be excluded, got %d members", len(got))
	}
	for _, loc := range got {
		if loc.Latitude > 59.333 {
			t.Fatalf("outlier made it into the group")
		}
	}
}

func TestCullSingleMember(t *testing.T) {
	if got := Cull([]pkg.RfLocation{rf(pkg.TypeGSM, 59.33, 18.06, 1000, 16)}, DefaultConfig()); len(got) != 1 {
		t.Fatalf("single valid member should pass")
	}
	invalid := rf(pkg.TypeInvalid, 59.33, 18.06, 1000, 16)
	if got := Cull([]pkg.RfLocation{invalid}, DefaultConfig()); got != nil {
		t.Fatalf("single invalid-type member must be rejected")
	}
}

func TestCullRejectsUndersizedGroup(t *testing.T) {
	// Two WiFi APs too far apart to group; neither lone AP meets the WiFi
	// minimum group size of 2.
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.33, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.35, 18.06, 50, 20),
	}
	if got := Cull(locs, DefaultConfig()); got != nil {
		t.Fatalf("no viable group expected, got %d members", len(got))
	}
}

func TestFuseTwoAccessPointsNearMidpoint(t *testing.T) {
	// Two learned wlan2 coverages 0.0005 degrees apart, both at full signal.
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 40, 31),
		rf(pkg.TypeWLAN2, 59.3305, 18.06, 40, 31),
	}
	fused := Fuse(locs, DefaultConfig())
	if fused == nil {
		t.Fatalf("two consistent access points must fuse")
	}
	if fused.Sources != 2 {
		t.Fatalf("expected 2 sources, got %d", fused.Sources)
	}
	if math.Abs(fused.Latitude-59.33025) > 1e-6 {
		t.Fatalf("expected the midpoint, got %f", fused.Latitude)
	}
	if fused.Accuracy > 40.001 {
		t.Fatalf("expected accuracy within a member's own, got %f", fused.Accuracy)
	}
}

func TestFuseSingleCellTower(t *testing.T) {
	fused := Fuse([]pkg.RfLocation{rf(pkg.TypeGSM, 59.33, 18.06, 1000, 16)}, DefaultConfig())
	if fused == nil {
		t.Fatalf("a single cell tower must fuse (group size 1)")
	}
	if fused.Latitude != 59.33 || fused.Longitude != 18.06 {
		t.Fatalf("expected the tower center, got %f,%f", fused.Latitude, fused.Longitude)
	}
	if fused.Accuracy < 500 {
		t.Fatalf("cell-only accuracy must not undercut the GSM minimum range, got %f", fused.Accuracy)
	}
}

func TestFuseIdenticalMembersAccuracy(t *testing.T) {
	a := rf(pkg.TypeWLAN2, 59.33, 18.06, 80, 20)
	b := a
	fused := Fuse([]pkg.RfLocation{a, b}, DefaultConfig())
	if fused == nil {
		t.Fatalf("identical members must fuse")
	}
	if fused.Latitude != 59.33 || fused.Longitude != 18.06 {
		t.Fatalf("expected the shared position")
	}
	if fused.Accuracy > 80 {
		t.Fatalf("accuracy must not exceed a member's own, got %f", fused.Accuracy)
	}
}

func TestFuseWeightsTowardStrongerSignal(t *testing.T) {
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 60, 31),
		rf(pkg.TypeWLAN2, 59.3304, 18.06, 60, 5),
	}
	fused := Fuse(locs, DefaultConfig())
	if fused == nil {
		t.Fatalf("expected a fused location")
	}
	midpoint := 59.3302
	if fused.Latitude >= midpoint {
		t.Fatalf("strong member should pull the result toward it, got %f", fused.Latitude)
	}
}

func TestFuseSuspiciousMembersInflate(t *testing.T) {
	clean := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 60, 20),
		rf(pkg.TypeWLAN2, 59.3301, 18.06, 60, 20),
	}
	sus := make([]pkg.RfLocation, len(clean))
	copy(sus, clean)
	for i := range sus {
		sus[i].Suspicious = true
	}

	cleanFused := Fuse(clean, DefaultConfig())
	susFused := Fuse(sus, DefaultConfig())
	if cleanFused == nil || susFused == nil {
		t.Fatalf("both sets must fuse")
	}
	if susFused.Accuracy <= cleanFused.Accuracy {
		t.Fatalf("all-suspicious set must report worse accuracy: %f vs %f",
			susFused.Accuracy, cleanFused.Accuracy)
	}
}

func TestFuseMedianTrimsMovedEmitter(t *testing.T) {
	// Five APs agree; a sixth was observed at home but has since moved
	// across town. The median trim discards it and the result stays on the
	// cluster.
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.33000, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.33005, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.33010, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.33015, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.33020, 18.06, 50, 20),
		rf(pkg.TypeWLAN2, 59.33300, 18.06, 50, 20), // ~320m off
	}
	fused := Fuse(locs, DefaultConfig())
	if fused == nil {
		t.Fatalf("expected a fused location")
	}
	if fused.Sources != 5 {
		t.Fatalf("moved emitter should be trimmed, got %d sources", fused.Sources)
	}
	if fused.Latitude > 59.3303 {
		t.Fatalf("result should sit on the tight cluster, got %f", fused.Latitude)
	}
}

func TestFuseNoTrimEqualsPlainAverage(t *testing.T) {
	locs := []pkg.RfLocation{
		rf(pkg.TypeWLAN2, 59.3300, 18.06, 50, 25),
		rf(pkg.TypeWLAN2, 59.3301, 18.06, 50, 18),
		rf(pkg.TypeWLAN2, 59.3302, 18.06, 50, 12),
	}
	fused := Fuse(locs, DefaultConfig())
	avg := average(locs, DefaultConfig())
	if fused == nil || avg == nil {
		t.Fatalf("both paths must produce a result")
	}
	if fused.Latitude != avg.Latitude || fused.Longitude != avg.Longitude || fused.Accuracy != avg.Accuracy {
		t.Fatalf("with nothing trimmed, refinement must equal the plain average")
	}
}

func TestFuseEmptyInput(t *testing.T) {
	if got := Fuse(nil, DefaultConfig()); got != nil {
		t.Fatalf("empty input must not fuse")
	}
}
