package emitter

import (
	"testing"
	"time"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/logx"
)

func TestDriftTrackerFlagsOutwardTrend(t *testing.T) {
	d := newDriftTracker(DefaultDriftConfig())
	now := time.Now()

	// 3 m/s outward, well over the 1.5 m/s slope cap.
	for i := 0; i < 8; i++ {
		d.add(now.Add(time.Duration(i)*time.Second), float64(i)*3)
	}
	if !d.moving() {
		t.Fatalf("steady outward trend should be flagged")
	}
}

func TestDriftTrackerIgnoresStaticEmitter(t *testing.T) {
	d := newDriftTracker(DefaultDriftConfig())
	now := time.Now()

	// Distances jitter around a constant; slope is ~0.
	dists := []float64{22, 25, 21, 24, 23, 22, 25, 21}
	for i, dist := range dists {
		d.add(now.Add(time.Duration(i)*time.Second), dist)
	}
	if d.moving() {
		t.Fatalf("static emitter must not be flagged")
	}
}

func TestDriftTrackerNeedsEnoughSamples(t *testing.T) {
	d := newDriftTracker(DefaultDriftConfig())
	now := time.Now()
	for i := 0; i < 3; i++ {
		d.add(now.Add(time.Duration(i)*time.Second), float64(i)*10)
	}
	if d.moving() {
		t.Fatalf("short window must never be trusted")
	}
}

func TestDriftTrackerWindowIsBounded(t *testing.T) {
	config := &DriftConfig{Enabled: true, MinSamples: 3, WindowSize: 5, MaxSlopeMps: 1.5}
	d := newDriftTracker(config)
	now := time.Now()
	for i := 0; i < 20; i++ {
		d.add(now.Add(time.Duration(i)*time.Second), 10)
	}
	if len(d.samples) != 5 {
		t.Fatalf("window should be capped at %d, got %d", 5, len(d.samples))
	}
}

func TestRecordBlacklistsOnDrift(t *testing.T) {
	id := pkg.Identity{ID: "aa:bb:cc:dd:ee:ff", Type: pkg.TypeGSM}
	config := &DriftConfig{Enabled: true, MinSamples: 4, WindowSize: 16, MaxSlopeMps: 1.5}
	r := NewRecord(id, config, logx.New("error"))
	now := time.Now()

	// A cell identity crawling along a road: each fix is individually well
	// inside the 35km GSM range, but the distance trend is ~10 m/s.
	for i := 0; i < 10; i++ {
		at := now.Add(time.Duration(i) * 30 * time.Second)
		r.Observe(pkg.Observation{Identity: id, Signal: 20, Time: at})
		r.UpdateLocation(pkg.Fix{
			Latitude:  59.33 + float64(i)*0.0027, // ~300m per step
			Longitude: 18.06,
			Accuracy:  50,
			Time:      at,
		})
		if r.Status == StatusBlacklisted {
			break
		}
	}
	if r.Status != StatusBlacklisted {
		t.Fatalf("sustained drift should blacklist, got %s", r.Status)
	}
}
