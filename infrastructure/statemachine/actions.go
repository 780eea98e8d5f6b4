package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// enterPhase syncs the context phase on entry.
// In statekit, actions receive a pointer to the context. Since our context is *Context,
// actions receive **Context.
func enterPhase(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if to := targetPhase(event); to.IsValid() {
		(*ctx).Phase = to
	}
}

// recordTransition appends the transition to the request's log.
func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}

	c := *ctx
	var reason string
	if payload, ok := event.Payload.(TransitionPayload); ok {
		reason = payload.Reason
	}

	c.Transitions = append(c.Transitions, Transition{
		From:   c.Phase,
		To:     targetPhase(event),
		Reason: reason,
		At:     time.Now(),
	})
}

func targetPhase(event statekit.Event) planning.Phase {
	if payload, ok := event.Payload.(TransitionPayload); ok && payload.ToPhase != "" {
		return payload.ToPhase
	}
	return phaseFromEventType(event.Type)
}
