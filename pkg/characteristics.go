package pkg

import "math"

// Characteristics holds the static per-type constants that drive coverage
// learning and position synthesis. The values encode typical cell sizes of
// each radio technology: WiFi needs tight fixes and covers little ground,
// wide-area cellular tolerates loose fixes and covers tens of kilometers.
type Characteristics struct {
	RequiredFixAccuracy float64 // meters; fixes worse than this cannot map coverage
	MinRange            float64 // meters; floor for any reported accuracy
	MaxRange            float64 // meters; coverage beyond this marks a mobile emitter
	MinGroupSize        int     // smallest cluster this type can anchor in synthesis
}

// CharacteristicsFor returns the static characteristics for an emitter type.
// Pure lookup, no I/O.
func CharacteristicsFor(t EmitterType) Characteristics {
	switch t {
	case TypeWLAN2:
		return Characteristics{RequiredFixAccuracy: 40, MinRange: 50, MaxRange: 400, MinGroupSize: 2}
	case TypeWLAN5:
		return Characteristics{RequiredFixAccuracy: 40, MinRange: 40, MaxRange: 300, MinGroupSize: 2}
	case TypeWLAN6:
		return Characteristics{RequiredFixAccuracy: 40, MinRange: 40, MaxRange: 250, MinGroupSize: 2}
	case TypeBT:
		return Characteristics{RequiredFixAccuracy: 20, MinRange: 10, MaxRange: 100, MinGroupSize: 2}
	case TypeGSM:
		return Characteristics{RequiredFixAccuracy: 300, MinRange: 500, MaxRange: 35000, MinGroupSize: 1}
	case TypeCDMA:
		return Characteristics{RequiredFixAccuracy: 300, MinRange: 500, MaxRange: 35000, MinGroupSize: 1}
	case TypeWCDMA:
		return Characteristics{RequiredFixAccuracy: 300, MinRange: 400, MaxRange: 30000, MinGroupSize: 1}
	case TypeTDSCDMA:
		return Characteristics{RequiredFixAccuracy: 300, MinRange: 400, MaxRange: 30000, MinGroupSize: 1}
	case TypeLTE:
		return Characteristics{RequiredFixAccuracy: 200, MinRange: 350, MaxRange: 25000, MinGroupSize: 1}
	case TypeNR:
		return Characteristics{RequiredFixAccuracy: 100, MinRange: 150, MaxRange: 10000, MinGroupSize: 1}
	default:
		// Unknown/invalid types can never anchor a group.
		return Characteristics{MinGroupSize: math.MaxInt32}
	}
}
