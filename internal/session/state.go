// Package session holds the cross-loop mutable state: the connection
// state machine and the monitored-group target. Both are guarded values
// replaced wholesale; these are the only things the polling loops share
// besides the rate limiter.
package session

import "sync"

// State is the instance's authorization state as tracked locally.
type State string

const (
	StateUnknown       State = "unknown"
	StateStarting      State = "starting"
	StateNotAuthorized State = "notAuthorized"
	StateAuthorized    State = "authorized"
	StateError         State = "error"
)

// Authorized reports whether this state is on the connected side of the
// authorization boundary.
func (s State) Authorized() bool { return s == StateAuthorized }

// Transition describes the outcome of feeding one raw state observation
// into the machine.
type Transition int

const (
	// TransitionNone: the authorization boundary was not crossed. Churn
	// among unknown/starting/error on the unauthorized side lands here.
	TransitionNone Transition = iota
	// TransitionConnected: crossed into authorized.
	TransitionConnected
	// TransitionDisconnected: crossed out of authorized.
	TransitionDisconnected
)

// Machine tracks the connection state and debounces noisy remote
// fluctuations: a transition is effective only when it crosses the
// authorized boundary, so side effects (starting and stopping the
// notification poller, emitting status events) fire exactly once per
// crossing.
type Machine struct {
	mu      sync.Mutex
	current State
	// effective is the last boundary-relevant truth: were we authorized?
	effective bool
}

// NewMachine starts in the unknown, unauthorized condition.
func NewMachine() *Machine {
	return &Machine{current: StateUnknown}
}

// Current returns the last observed state.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Connected reports whether the effective state is authorized.
func (m *Machine) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective
}

// Apply feeds one raw provider state string into the machine and returns
// the effective transition, if any.
func (m *Machine) Apply(raw string) Transition {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := parseState(raw)
	m.current = next

	if next.Authorized() && !m.effective {
		m.effective = true
		return TransitionConnected
	}
	// Only an explicit notAuthorized drops the effective state. Error,
	// unknown and starting observations while authorized are transient
	// noise, not evidence of deauthorization.
	if next == StateNotAuthorized && m.effective {
		m.effective = false
		return TransitionDisconnected
	}
	return TransitionNone
}

// ApplyRateLimited records a rate-limited state check: the remote refused
// to answer, which says nothing about authorization. The effective state
// is preserved untouched.
func (m *Machine) ApplyRateLimited() Transition {
	return TransitionNone
}

// ApplyError records a failed state check. The current state becomes
// Error for observability, but the effective state survives: one bad
// poll must not look like a disconnect.
func (m *Machine) ApplyError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = StateError
}

func parseState(raw string) State {
	switch raw {
	case "authorized":
		return StateAuthorized
	case "notAuthorized":
		return StateNotAuthorized
	case "starting":
		return StateStarting
	case "error":
		return StateError
	default:
		return StateUnknown
	}
}
