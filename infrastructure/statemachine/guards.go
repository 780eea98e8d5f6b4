package statemachine

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// guardStageAllowed rejects stages the request's operation does not run.
// Note: In statekit, guards receive the context by value. Since our context is *Context,
// the guard receives *Context directly.
func guardStageAllowed(ctx *Context, event statekit.Event) bool {
	if ctx == nil {
		return false
	}
	return ctx.Allows(targetPhase(event))
}

// phaseFromEventType derives the target phase from an event type.
func phaseFromEventType(eventType statekit.EventType) planning.Phase {
	switch eventType {
	case EventSearch:
		return planning.PhaseSearching
	case EventFound:
		return planning.PhasePlanFound
	case EventReorder:
		return planning.PhaseReordering
	case EventComplete:
		return planning.PhaseCompleting
	case EventDone:
		return planning.PhaseDone
	case EventExhaust:
		return planning.PhaseExhausted
	case EventFail:
		return planning.PhaseFailed
	default:
		return planning.Phase(eventType)
	}
}
