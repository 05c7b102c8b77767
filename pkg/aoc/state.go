package aoc

type State int

const (
	StateUninitialized State = iota
	// StateLoaded: constructed, persisted state applied, no call completed yet.
	StateLoaded
	StateIdle
	// StateFetching: at least one call is waiting on the throttle or the network.
	StateFetching
	// StateFlushed: closed; state written back to the store.
	StateFlushed
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateFlushed:
		return "flushed"
	default:
		return "uninitialized"
	}
}

// State reports the lifecycle state. It is a snapshot for diagnostics.
func (c *Client) State() State {
	switch {
	case c == nil:
		return StateUninitialized
	case c.flushed.Load():
		return StateFlushed
	case c.fetching.Load() > 0:
		return StateFetching
	case c.used.Load():
		return StateIdle
	default:
		return StateLoaded
	}
}
