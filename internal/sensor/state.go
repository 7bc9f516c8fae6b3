package sensor

// State of the forced-mode duty cycle.
type State uint8

const (
	Idle State = iota
	Configuring
	Configured
	Triggered
	Settling
	ReadReady
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Configured:
		return "configured"
	case Triggered:
		return "triggered"
	case Settling:
		return "settling"
	case ReadReady:
		return "read_ready"
	}
	return "unknown"
}

// Freshness of a Cycle. The zero value is Stale.
type Freshness uint8

const (
	Stale Freshness = iota
	Fresh
)

func (f Freshness) String() string {
	if f == Fresh {
		return "fresh"
	}
	return "stale"
}
