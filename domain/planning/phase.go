package planning

// Phase identifies where a planning request is in its lifecycle.
type Phase string

// Request lifecycle phases.
const (
	PhaseIdle       Phase = "idle"       // Request accepted
	PhaseSearching  Phase = "searching"  // Generating a draft plan
	PhasePlanFound  Phase = "plan_found" // Draft plan available
	PhaseReordering Phase = "reordering" // Reordering to avoid conflicts
	PhaseCompleting Phase = "completing" // Filling gaps
	PhaseDone       Phase = "done"       // Terminal success
	PhaseExhausted  Phase = "exhausted"  // Terminal: search limits hit
	PhaseFailed     Phase = "failed"     // Terminal failure
)

// IsTerminal returns true for done, exhausted and failed.
func (p Phase) IsTerminal() bool {
	return p == PhaseDone || p == PhaseExhausted || p == PhaseFailed
}

// IsValid returns true if the phase is recognized.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseIdle, PhaseSearching, PhasePlanFound, PhaseReordering,
		PhaseCompleting, PhaseDone, PhaseExhausted, PhaseFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// AllPhases returns every phase in lifecycle order.
func AllPhases() []Phase {
	return []Phase{
		PhaseIdle,
		PhaseSearching,
		PhasePlanFound,
		PhaseReordering,
		PhaseCompleting,
		PhaseDone,
		PhaseExhausted,
		PhaseFailed,
	}
}

// TerminalPhases returns the terminal phases.
func TerminalPhases() []Phase {
	return []Phase{PhaseDone, PhaseExhausted, PhaseFailed}
}
