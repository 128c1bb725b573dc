// Package signal learns per-device signal-strength quirks. Some radios
// report the same ASU value for every emitter they hear; once detected, that
// constant is replaced with a neutral mid-scale value so it cannot skew the
// synthesis weighting.
package signal

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rfmap/rfmap/pkg"
	"github.com/rfmap/rfmap/pkg/logx"
)

// DecisionSamples is how many observations of a type are compared before the
// constant-signal verdict is fixed.
const DecisionSamples = 8

const settingPrefix = "sigcal."

// KV is the slice of the row store the corrector persists its verdicts in.
type KV interface {
	GetSetting(key string) (string, bool, error)
	PutSetting(key, value string) error
}

// calState is the persisted learning state for one emitter type.
type calState struct {
	Seen     int  `json:"seen"`
	Value    int  `json:"value"`
	Decided  bool `json:"decided"`
	Constant bool `json:"constant"`
}

// Corrector applies the learned per-type correction to raw signal values.
type Corrector struct {
	mu     sync.Mutex
	kv     KV
	logger *logx.Logger
	states map[pkg.EmitterType]*calState
}

// NewCorrector creates a corrector over the given settings store. State is
// loaded lazily, one type at a time, on first use.
func NewCorrector(kv KV, logger *logx.Logger) *Corrector {
	return &Corrector{
		kv:     kv,
		logger: logger,
		states: make(map[pkg.EmitterType]*calState),
	}
}

// Correct clamps the raw signal and substitutes the neutral value for types
// whose radio is known to report a constant. Undecided types keep learning
// from the values passing through.
func (c *Corrector) Correct(t pkg.EmitterType, raw int) int {
	signal := pkg.ClampSignal(raw)

	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.state(t)
	if err != nil {
		c.logger.Warn("signal correction state unavailable", "type", string(t), "error", err)
		return signal
	}

	if !state.Decided {
		c.observe(t, state, signal)
	}
	if state.Decided && state.Constant {
		return pkg.NeutralSignal
	}
	return signal
}

// observe advances the learning state with one more value and persists the
// verdict the moment it is reached.
func (c *Corrector) observe(t pkg.EmitterType, state *calState, signal int) {
	if state.Seen == 0 {
		state.Value = signal
		state.Seen = 1
		return
	}
	if signal != state.Value {
		state.Decided = true
		state.Constant = false
	} else {
		state.Seen++
		if state.Seen >= DecisionSamples {
			state.Decided = true
			state.Constant = true
		}
	}
	if state.Decided {
		c.logger.Info("signal correction decided",
			"type", string(t), "constant", state.Constant, "value", state.Value)
		if err := c.persist(t, state); err != nil {
			c.logger.Warn("failed to persist signal correction", "type", string(t), "error", err)
		}
	}
}

// state returns the in-memory state for a type, loading it from the settings
// table on first access.
func (c *Corrector) state(t pkg.EmitterType) (*calState, error) {
	if state, ok := c.states[t]; ok {
		return state, nil
	}
	state := &calState{}
	raw, ok, err := c.kv.GetSetting(settingPrefix + string(t))
	if err != nil {
		return nil, err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), state); err != nil {
			return nil, fmt.Errorf("corrupt signal correction state for %s: %w", t, err)
		}
	}
	c.states[t] = state
	return state, nil
}

func (c *Corrector) persist(t pkg.EmitterType, state *calState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.kv.PutSetting(settingPrefix+string(t), string(raw))
}
