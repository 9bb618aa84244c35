package supervisor

// State is a step in the per-sample retry/fallback state machine.
type State int

const (
	NotStarted State = iota
	PrimaryAttempted
	PrimaryRetried
	FallbackAttempted
	FallbackUnavailable
	Succeeded
	Failed
)

var stateNames = [...]string{
	NotStarted:          "not-started",
	PrimaryAttempted:    "primary-attempted",
	PrimaryRetried:      "primary-retried",
	FallbackAttempted:   "fallback-attempted",
	FallbackUnavailable: "fallback-unavailable",
	Succeeded:           "succeeded",
	Failed:              "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Succeeded || s == Failed }

// transitions lists the legal successors of each non-terminal state.
var transitions = map[State][]State{
	NotStarted:          {PrimaryAttempted},
	PrimaryAttempted:    {Succeeded, PrimaryRetried, FallbackAttempted, FallbackUnavailable, Failed},
	PrimaryRetried:      {Succeeded, FallbackAttempted, FallbackUnavailable, Failed},
	FallbackAttempted:   {Succeeded, Failed},
	FallbackUnavailable: {Failed},
}

// CanTransition reports whether from -> to is a legal step. Failed is
// reachable from any non-terminal state so an interrupt can end a sample.
func CanTransition(from, to State) bool {
	if to == Failed && !from.Terminal() {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
