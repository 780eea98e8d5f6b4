package statemachine

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// ErrIllegalTransition indicates an event the current phase does not accept.
var ErrIllegalTransition = errors.New("illegal phase transition")

// TransitionPayload carries additional data with a transition event.
type TransitionPayload struct {
	ToPhase planning.Phase
	Reason  string
}

// Interpreter wraps the statekit interpreter for one planning request.
type Interpreter struct {
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewInterpreter creates a new interpreter for the planning state machine.
func NewInterpreter(machine *statekit.MachineConfig[*Context], ctx *Context) *Interpreter {
	interp := statekit.NewInterpreter(machine)
	// Update the context reference in the machine
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	return &Interpreter{
		interp: interp,
		ctx:    ctx,
	}
}

// NewRequest builds a started interpreter for a request running stages.
func NewRequest(requestID string, stages ...planning.Phase) (*Interpreter, error) {
	machine, err := NewPlanningMachine()
	if err != nil {
		return nil, fmt.Errorf("build planning machine: %w", err)
	}
	i := NewInterpreter(machine, NewContext(requestID, stages...))
	i.Start()
	return i, nil
}

// Start initializes the interpreter and enters the initial state.
func (i *Interpreter) Start() {
	i.interp.Start()
	i.ctx.Phase = PhaseFromMachine(i.interp.State().Value)
}

// Stop stops the interpreter.
func (i *Interpreter) Stop() {
	i.interp.Stop()
}

// Phase returns the current phase.
func (i *Interpreter) Phase() planning.Phase {
	return PhaseFromMachine(i.interp.State().Value)
}

// CanAdvance checks if the request may move to phase.
func (i *Interpreter) CanAdvance(to planning.Phase) bool {
	if !i.ctx.Allows(to) {
		return false
	}
	for _, next := range successors[i.Phase()] {
		if next == to {
			return true
		}
	}
	return false
}

// Advance moves the request to phase. Events the current phase does not
// accept, or stages outside the request's operation, leave the phase
// unchanged and return ErrIllegalTransition.
func (i *Interpreter) Advance(to planning.Phase, reason string) error {
	from := i.Phase()
	if !i.CanAdvance(to) {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, from, to)
	}

	i.interp.Send(statekit.Event{
		Type:    EventForPhase(to),
		Payload: TransitionPayload{ToPhase: to, Reason: reason},
	})

	now := i.Phase()
	i.ctx.Phase = now
	if now != to {
		return fmt.Errorf("%w: %s to %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// Settle moves a request that stopped on err into its terminal phase:
// exhausted when a search ran out of budget, failed otherwise.
func (i *Interpreter) Settle(err error) planning.Phase {
	if i.IsTerminal() {
		return i.Phase()
	}
	if err == nil {
		_ = i.Advance(planning.PhaseDone, "")
		return i.Phase()
	}
	if i.Phase() == planning.PhaseSearching && errors.Is(err, planning.ErrNoPlanFound) {
		if i.Advance(planning.PhaseExhausted, planning.ErrorKind(err)) == nil {
			return i.Phase()
		}
	}
	_ = i.Advance(planning.PhaseFailed, planning.ErrorKind(err))
	return i.Phase()
}

// IsTerminal returns true if the interpreter is in a terminal state.
func (i *Interpreter) IsTerminal() bool {
	return i.interp.Done()
}

// Transitions returns a copy of the recorded transition log.
func (i *Interpreter) Transitions() []Transition {
	out := make([]Transition, len(i.ctx.Transitions))
	copy(out, i.ctx.Transitions)
	return out
}

// Context returns the interpreter context.
func (i *Interpreter) Context() *Context {
	return i.ctx
}

// Matches checks if the current state matches the given state ID.
func (i *Interpreter) Matches(stateID string) bool {
	return i.interp.Matches(statekit.StateID(stateID))
}
