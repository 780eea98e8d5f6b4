// Package statemachine provides the statekit statechart for the planning
// request lifecycle.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Transition is one recorded phase change.
type Transition struct {
	From   planning.Phase
	To     planning.Phase
	Reason string
	At     time.Time
}

// Context carries request state through the state machine.
type Context struct {
	RequestID   string
	Phase       planning.Phase
	Transitions []Transition

	// stages holds the phases the request's operation may visit.
	stages map[planning.Phase]bool
}

// NewContext creates a new machine context allowed to visit the given
// working phases. Terminal phases are always reachable.
func NewContext(requestID string, stages ...planning.Phase) *Context {
	c := &Context{
		RequestID: requestID,
		Phase:     planning.PhaseIdle,
		stages:    make(map[planning.Phase]bool, len(stages)),
	}
	for _, s := range stages {
		c.stages[s] = true
	}
	return c
}

// Allows reports whether the request may enter phase.
func (c *Context) Allows(phase planning.Phase) bool {
	if phase.IsTerminal() || phase == planning.PhasePlanFound {
		return true
	}
	return c.stages[phase]
}

// Stages for each operation.
var (
	GenerateStages         = []planning.Phase{planning.PhaseSearching}
	ReorderStages          = []planning.Phase{planning.PhaseReordering}
	CompleteStages         = []planning.Phase{planning.PhaseCompleting}
	GenerateCompleteStages = []planning.Phase{planning.PhaseSearching, planning.PhaseReordering, planning.PhaseCompleting}
)

// State IDs as StateID type for statekit.
const (
	stateIdle       statekit.StateID = statekit.StateID(planning.PhaseIdle)
	stateSearching  statekit.StateID = statekit.StateID(planning.PhaseSearching)
	statePlanFound  statekit.StateID = statekit.StateID(planning.PhasePlanFound)
	stateReordering statekit.StateID = statekit.StateID(planning.PhaseReordering)
	stateCompleting statekit.StateID = statekit.StateID(planning.PhaseCompleting)
	stateDone       statekit.StateID = statekit.StateID(planning.PhaseDone)
	stateExhausted  statekit.StateID = statekit.StateID(planning.PhaseExhausted)
	stateFailed     statekit.StateID = statekit.StateID(planning.PhaseFailed)
)

// Event types.
const (
	EventSearch   statekit.EventType = "SEARCH"
	EventFound    statekit.EventType = "FOUND"
	EventReorder  statekit.EventType = "REORDER"
	EventComplete statekit.EventType = "COMPLETE"
	EventDone     statekit.EventType = "DONE"
	EventExhaust  statekit.EventType = "EXHAUST"
	EventFail     statekit.EventType = "FAIL"
)

// NewPlanningMachine creates the request lifecycle statechart.
func NewPlanningMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("planning").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		// Register actions
		WithAction("enterPhase", enterPhase).
		WithAction("recordTransition", recordTransition).
		// Register guards
		WithGuard("stageAllowed", guardStageAllowed).
		// Define states
		State(stateIdle).
			OnEntry("enterPhase").
			On(EventSearch).Target(stateSearching).Guard("stageAllowed").Do("recordTransition").
			On(EventReorder).Target(stateReordering).Guard("stageAllowed").Do("recordTransition").
			On(EventComplete).Target(stateCompleting).Guard("stageAllowed").Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateSearching).
			OnEntry("enterPhase").
			On(EventFound).Target(statePlanFound).Do("recordTransition").
			On(EventExhaust).Target(stateExhausted).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(statePlanFound).
			OnEntry("enterPhase").
			On(EventReorder).Target(stateReordering).Guard("stageAllowed").Do("recordTransition").
			On(EventDone).Target(stateDone).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateReordering).
			OnEntry("enterPhase").
			On(EventComplete).Target(stateCompleting).Guard("stageAllowed").Do("recordTransition").
			On(EventDone).Target(stateDone).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateCompleting).
			OnEntry("enterPhase").
			On(EventDone).Target(stateDone).Do("recordTransition").
			On(EventFail).Target(stateFailed).Do("recordTransition").
			Done().
		State(stateDone).
			Final().
			OnEntry("enterPhase").
			Done().
		State(stateExhausted).
			Final().
			OnEntry("enterPhase").
			Done().
		State(stateFailed).
			Final().
			OnEntry("enterPhase").
			Done().
		Build()
}

// successors mirrors the statechart's transitions for pre-checking events.
var successors = map[planning.Phase][]planning.Phase{
	planning.PhaseIdle:       {planning.PhaseSearching, planning.PhaseReordering, planning.PhaseCompleting, planning.PhaseFailed},
	planning.PhaseSearching:  {planning.PhasePlanFound, planning.PhaseExhausted, planning.PhaseFailed},
	planning.PhasePlanFound:  {planning.PhaseReordering, planning.PhaseDone, planning.PhaseFailed},
	planning.PhaseReordering: {planning.PhaseCompleting, planning.PhaseDone, planning.PhaseFailed},
	planning.PhaseCompleting: {planning.PhaseDone, planning.PhaseFailed},
}

// EventForPhase returns the event that moves a request into phase.
func EventForPhase(to planning.Phase) statekit.EventType {
	switch to {
	case planning.PhaseSearching:
		return EventSearch
	case planning.PhasePlanFound:
		return EventFound
	case planning.PhaseReordering:
		return EventReorder
	case planning.PhaseCompleting:
		return EventComplete
	case planning.PhaseDone:
		return EventDone
	case planning.PhaseExhausted:
		return EventExhaust
	case planning.PhaseFailed:
		return EventFail
	default:
		return statekit.EventType(to)
	}
}

// PhaseFromMachine converts the machine state ID to a domain Phase.
func PhaseFromMachine(stateID statekit.StateID) planning.Phase {
	return planning.Phase(stateID)
}
