package signal

import (
	"testing"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/logx"
)

// memKV is an in-memory settings table.
type memKV struct {
	values map[string]string
}

func newMemKV() *memKV { return &memKV{values: make(map[string]string)} }

func (m *memKV) GetSetting(key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memKV) PutSetting(key, value string) error {
	m.values[key] = value
	return nil
}

func TestCorrectPassesVaryingSignals(t *testing.T) {
	c := NewCorrector(newMemKV(), logx.New("error"))

	if got := c.Correct(pkg.TypeWLAN2, 20); got != 20 {
		t.Fatalf("first value should pass through, got %d", got)
	}
	if got := c.Correct(pkg.TypeWLAN2, 25); got != 25 {
		t.Fatalf("varying value should pass through, got %d", got)
	}
	// Decided non-constant: even a long identical run stays untouched now.
	for i := 0; i < DecisionSamples*2; i++ {
		if got := c.Correct(pkg.TypeWLAN2, 25); got != 25 {
			t.Fatalf("decided varying radio must never be corrected, got %d", got)
		}
	}
}

func TestCorrectNeutralizesConstantRadio(t *testing.T) {
	c := NewCorrector(newMemKV(), logx.New("error"))

	for i := 0; i < DecisionSamples-1; i++ {
		if got := c.Correct(pkg.TypeLTE, 23); got != 23 {
			t.Fatalf("undecided value should pass through, got %d", got)
		}
	}
	// The deciding sample flips every subsequent value to neutral.
	if got := c.Correct(pkg.TypeLTE, 23); got != pkg.NeutralSignal {
		t.Fatalf("constant radio should report neutral, got %d", got)
	}
	if got := c.Correct(pkg.TypeLTE, 30); got != pkg.NeutralSignal {
		t.Fatalf("constant verdict applies to every value, got %d", got)
	}
}

func TestCorrectVerdictSurvivesRestart(t *testing.T) {
	kv := newMemKV()
	c := NewCorrector(kv, logx.New("error"))
	for i := 0; i < DecisionSamples; i++ {
		c.Correct(pkg.TypeLTE, 23)
	}

	// A new corrector over the same settings store inherits the verdict.
	c2 := NewCorrector(kv, logx.New("error"))
	if got := c2.Correct(pkg.TypeLTE, 23); got != pkg.NeutralSignal {
		t.Fatalf("verdict should persist across restarts, got %d", got)
	}
}

func TestCorrectTracksTypesIndependently(t *testing.T) {
	c := NewCorrector(newMemKV(), logx.New("error"))
	for i := 0; i < DecisionSamples; i++ {
		c.Correct(pkg.TypeLTE, 23)
	}
	if got := c.Correct(pkg.TypeWLAN2, 23); got != 23 {
		t.Fatalf("verdict for one type must not leak into another, got %d", got)
	}
}

func TestCorrectClampsOutOfRange(t *testing.T) {
	c := NewCorrector(newMemKV(), logx.New("error"))
	if got := c.Correct(pkg.TypeWLAN2, 99); got != pkg.MaxSignal {
		t.Fatalf("expected clamp to %d, got %d", pkg.MaxSignal, got)
	}
	if got := c.Correct(pkg.TypeWLAN2, -3); got != pkg.MinSignal {
		t.Fatalf("expected clamp to %d, got %d", pkg.MinSignal, got)
	}
}
