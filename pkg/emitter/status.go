package emitter

// Status represents the lifecycle state of an emitter record.
type Status int

// Record statuses
const (
	// StatusUnknown marks a record created for an emitter seen this cycle
	// with no persisted row and no coverage yet.
	StatusUnknown Status = iota
	// StatusNew marks freshly learned coverage that has never been persisted.
	StatusNew
	// StatusCached marks coverage that matches the persisted row.
	StatusCached
	// StatusChanged marks persisted coverage that has since grown.
	StatusChanged
	// StatusBlacklisted marks an emitter rejected as mobile or implausible.
	// Terminal: no transition leaves it.
	StatusBlacklisted
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusNew:
		return "new"
	case StatusCached:
		return "cached"
	case StatusChanged:
		return "changed"
	case StatusBlacklisted:
		return "blacklisted"
	default:
		return "invalid"
	}
}

// Transition returns the status after requesting a change from one status to
// another. It is total: an illegal request leaves the current status
// unchanged rather than failing. The legal table is
//
//	unknown → new | cached | blacklisted
//	new     → cached | blacklisted
//	cached  → changed | blacklisted
//	changed → cached | blacklisted
func Transition(from, to Status) Status {
	legal := false
	switch from {
	case StatusUnknown:
		legal = to == StatusNew || to == StatusCached || to == StatusBlacklisted
	case StatusNew:
		legal = to == StatusCached || to == StatusBlacklisted
	case StatusCached:
		legal = to == StatusChanged || to == StatusBlacklisted
	case StatusChanged:
		legal = to == StatusCached || to == StatusBlacklisted
	case StatusBlacklisted:
		legal = false
	}
	if legal {
		return to
	}
	return from
}
