package pkg

import (
	"math"
	"testing"
	"time"
)

func TestUniqueKeyBandPrefix(t *testing.T) {
	wlan := Identity{ID: "AA:BB:CC:DD:EE:FF", Type: TypeWLAN5}
	if got := wlan.UniqueKey(); got != "wlan5:aa:bb:cc:dd:ee:ff" {
		t.Fatalf("unexpected wlan key %q", got)
	}

	// The same address on another band is a different emitter.
	other := Identity{ID: "AA:BB:CC:DD:EE:FF", Type: TypeWLAN2}
	if wlan.UniqueKey() == other.UniqueKey() {
		t.Fatalf("bands must not collide")
	}

	cell := Identity{ID: "240-1-12345-678901", Type: TypeLTE}
	if got := cell.UniqueKey(); got != "240-1-12345-678901" {
		t.Fatalf("cell keys must be raw, got %q", got)
	}
}

func TestIdentityEqualIsCaseInsensitiveForWLAN(t *testing.T) {
	a := Identity{ID: "AA:BB:CC:DD:EE:FF", Type: TypeWLAN2}
	b := Identity{ID: "aa:bb:cc:dd:ee:ff", Type: TypeWLAN2}
	if !a.Equal(b) {
		t.Fatalf("address case must not distinguish emitters")
	}
}

func TestEmitterTypePredicates(t *testing.T) {
	for _, typ := range []EmitterType{TypeWLAN2, TypeWLAN5, TypeWLAN6, TypeBT} {
		if !typ.ShortRange() || typ.Cellular() {
			t.Errorf("%s should be short-range only", typ)
		}
	}
	for _, typ := range []EmitterType{TypeGSM, TypeCDMA, TypeWCDMA, TypeTDSCDMA, TypeLTE, TypeNR} {
		if !typ.Cellular() || typ.ShortRange() {
			t.Errorf("%s should be cellular only", typ)
		}
	}
	if TypeInvalid.Valid() || EmitterType("radar").Valid() {
		t.Errorf("unknown types must be invalid")
	}
	if TypeBT.IsWLAN() {
		t.Errorf("bluetooth is not a wifi band")
	}
}

func TestObservationWellFormed(t *testing.T) {
	good := Observation{Identity: Identity{ID: "x", Type: TypeGSM}, Signal: 10, Time: time.Now()}
	if !good.WellFormed() {
		t.Fatalf("good observation rejected")
	}
	if (Observation{Identity: Identity{Type: TypeGSM}, Time: time.Now()}).WellFormed() {
		t.Fatalf("empty id accepted")
	}
	if (Observation{Identity: Identity{ID: "x", Type: TypeInvalid}, Time: time.Now()}).WellFormed() {
		t.Fatalf("invalid type accepted")
	}
	if (Observation{Identity: Identity{ID: "x", Type: TypeGSM}}).WellFormed() {
		t.Fatalf("zero time accepted")
	}
}

func TestFixValid(t *testing.T) {
	now := time.Now()
	if !(Fix{Latitude: 59.33, Longitude: 18.06, Accuracy: 10, Time: now}).Valid() {
		t.Fatalf("good fix rejected")
	}
	if (Fix{Latitude: 0, Longitude: 0, Accuracy: 10, Time: now}).Valid() {
		t.Fatalf("null island accepted")
	}
	if (Fix{Latitude: 59.33, Longitude: 18.06, Accuracy: 0, Time: now}).Valid() {
		t.Fatalf("zero accuracy accepted")
	}
	if (Fix{Latitude: 59.33, Longitude: 18.06, Accuracy: 10}).Valid() {
		t.Fatalf("zero time accepted")
	}
}

func TestCharacteristicsOrdering(t *testing.T) {
	for _, typ := range []EmitterType{TypeWLAN2, TypeWLAN5, TypeWLAN6, TypeBT, TypeGSM, TypeLTE, TypeNR} {
		ch := CharacteristicsFor(typ)
		if ch.MinRange <= 0 || ch.MaxRange <= ch.MinRange {
			t.Errorf("%s: implausible range bounds %+v", typ, ch)
		}
		if ch.RequiredFixAccuracy <= 0 {
			t.Errorf("%s: missing fix accuracy bound", typ)
		}
	}

	// WiFi demands tight fixes; cellular tolerates loose ones.
	if CharacteristicsFor(TypeWLAN2).RequiredFixAccuracy >= CharacteristicsFor(TypeGSM).RequiredFixAccuracy {
		t.Fatalf("wifi should demand tighter fixes than cellular")
	}
	if CharacteristicsFor(TypeInvalid).MinGroupSize != math.MaxInt32 {
		t.Fatalf("invalid type must never anchor a group")
	}
}

func TestApproxDistance(t *testing.T) {
	// One degree of latitude.
	d := ApproxDistance(59.0, 18.0, 60.0, 18.0)
	if math.Abs(d-MetersPerDegree) > 1 {
		t.Fatalf("meridional distance off: %f", d)
	}

	// Longitude shrinks with latitude.
	dEq := ApproxDistance(0, 0, 0, 1)
	dNorth := ApproxDistance(60, 0, 60, 1)
	if dNorth >= dEq {
		t.Fatalf("longitude distance should shrink with latitude: %f vs %f", dNorth, dEq)
	}

	if ApproxDistance(59.33, 18.06, 59.33, 18.06) != 0 {
		t.Fatalf("zero distance expected")
	}
}

func TestLatitudeCosineFloor(t *testing.T) {
	if LatitudeCosine(89.9999) != MinCosine {
		t.Fatalf("near-pole cosine must be floored")
	}
	if math.Abs(LatitudeCosine(0)-1) > 1e-12 {
		t.Fatalf("equator cosine should be 1")
	}
}
