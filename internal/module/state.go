package module

// Phase is a lifecycle phase.
type Phase int

// Lifecycle phases, in the order they run.
const (
	PhaseInit Phase = iota
	PhaseLoad
	PhaseDefaults
	PhaseRun
	PhaseUnload
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseLoad:
		return "load"
	case PhaseDefaults:
		return "defaults"
	case PhaseRun:
		return "run"
	case PhaseUnload:
		return "unload"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of one module.
type State int

// Module states.
const (
	// StateRegistered - Module is registered but not initialized.
	StateRegistered State = iota

	// StateInitialized - Init returned.
	StateInitialized

	// StateLoaded - Load returned.
	StateLoaded

	// StateRunning - Run returned.
	StateRunning

	// StateUnloaded - Unload returned.
	StateUnloaded

	// StateError - A lifecycle call failed.
	StateError
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateInitialized:
		return "initialized"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateUnloaded:
		return "unloaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

func (p Phase) done() State {
	switch p {
	case PhaseInit:
		return StateInitialized
	case PhaseLoad:
		return StateLoaded
	case PhaseRun:
		return StateRunning
	case PhaseUnload:
		return StateUnloaded
	}
	return StateError
}
