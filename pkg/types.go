package pkg

import (
	"strings"
	"time"
)

// EmitterType identifies the radio technology of an emitter
type EmitterType string

// Emitter types
const (
	TypeWLAN2   EmitterType = "wlan2"
	TypeWLAN5   EmitterType = "wlan5"
	TypeWLAN6   EmitterType = "wlan6"
	TypeBT      EmitterType = "bt"
	TypeGSM     EmitterType = "gsm"
	TypeCDMA    EmitterType = "cdma"
	TypeWCDMA   EmitterType = "wcdma"
	TypeTDSCDMA EmitterType = "tdscdma"
	TypeLTE     EmitterType = "lte"
	TypeNR      EmitterType = "nr"
	TypeInvalid EmitterType = "invalid"
)

// Signal strength bounds (ASU, device/vendor-normalized)
const (
	MinSignal = 1
	MaxSignal = 31
	// NeutralSignal is substituted when a radio is known to report a
	// constant, meaningless signal value for every emitter.
	NeutralSignal = 16
)

// IsWLAN reports whether the type is a WiFi band.
func (t EmitterType) IsWLAN() bool {
	switch t {
	case TypeWLAN2, TypeWLAN5, TypeWLAN6:
		return true
	}
	return false
}

// ShortRange reports whether the type is a short-range technology
// (WiFi bands and Bluetooth). Short-range emitters carry labels and are
// subject to mobility blacklisting; wide-area cellular types are not.
func (t EmitterType) ShortRange() bool {
	return t.IsWLAN() || t == TypeBT
}

// Cellular reports whether the type is a wide-area cellular technology.
func (t EmitterType) Cellular() bool {
	switch t {
	case TypeGSM, TypeCDMA, TypeWCDMA, TypeTDSCDMA, TypeLTE, TypeNR:
		return true
	}
	return false
}

// Valid reports whether the type is a known, usable emitter type.
func (t EmitterType) Valid() bool {
	return t.ShortRange() || t.Cellular()
}

// Identity is the canonical key for a radio emitter.
type Identity struct {
	ID   string      `json:"id"`
	Type EmitterType `json:"type"`
}

// UniqueKey returns the canonical storage key for the identity. WLAN keys
// are band-prefixed because the same hardware address on different bands is
// a distinct physical entity; cell ids are already globally unique within a
// type, so cellular and Bluetooth keys are the raw id.
func (i Identity) UniqueKey() string {
	if i.Type.IsWLAN() {
		return string(i.Type) + ":" + strings.ToLower(i.ID)
	}
	return i.ID
}

// Equal reports whether two identities refer to the same emitter.
func (i Identity) Equal(other Identity) bool {
	return i.UniqueKey() == other.UniqueKey()
}

// Observation is one scan result for one emitter. Observations are ephemeral:
// they are consumed during the processing cycle they arrive in and never
// persisted.
type Observation struct {
	Identity   Identity  `json:"identity"`
	Signal     int       `json:"signal"` // ASU, clamped to [MinSignal, MaxSignal]
	Time       time.Time `json:"time"`
	Label      string    `json:"label,omitempty"`
	Suspicious bool      `json:"suspicious,omitempty"`
}

// WellFormed reports whether the observation carries everything the engine
// needs. Malformed observations are discarded at the boundary, never
// surfaced as errors.
func (o Observation) WellFormed() bool {
	return o.Identity.ID != "" && o.Identity.Type.Valid() && !o.Time.IsZero()
}

// ClampSignal bounds a signal strength value to the valid ASU range.
func ClampSignal(signal int) int {
	if signal < MinSignal {
		return MinSignal
	}
	if signal > MaxSignal {
		return MaxSignal
	}
	return signal
}

// Fix is a trusted satellite position fix, already conditioned by the
// external smoothing filter.
type Fix struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters, 68% confidence radius
	Time      time.Time `json:"time"`
}

// Valid reports whether the fix is usable. The (0,0) null-island sentinel
// marks "no real fix" and is filtered here.
func (f Fix) Valid() bool {
	if f.Latitude == 0 && f.Longitude == 0 {
		return false
	}
	return f.Accuracy > 0 && !f.Time.IsZero()
}

// RfLocation is a point-in-time projection of one emitter's learned
// coverage, built solely as input for one position synthesis pass.
type RfLocation struct {
	Type         EmitterType `json:"type"`
	Key          string      `json:"key"`
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	Accuracy     float64     `json:"accuracy"` // meters, floored at the type's minimum range
	Signal       int         `json:"signal"`
	Suspicious   bool        `json:"suspicious"`
	Radius       float64     `json:"radius"` // raw learned coverage radius, meters
	Time         time.Time   `json:"time"`
	MinGroupSize int         `json:"min_group_size"`
}

// FusedLocation is the single location produced by position synthesis for
// one reporting interval.
type FusedLocation struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"` // meters
	Time      time.Time `json:"time"`
	Sources   int       `json:"sources"` // number of emitters fused
}
