package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for planner logging.

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// ProblemType adds the problem type field.
func ProblemType(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("problem_type", name)
	}
}

// Phase adds a lifecycle phase field.
func Phase(p planning.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("phase", string(p))
	}
}

// FromPhase adds a from_phase field for transitions.
func FromPhase(p planning.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_phase", string(p))
	}
}

// ToPhase adds a to_phase field for transitions.
func ToPhase(p planning.Phase) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_phase", string(p))
	}
}

// Operation adds the planner operation name.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// OperatorName adds an operator name field.
func OperatorName(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operator", name)
	}
}

// PlanField adds the rendered plan and its length.
func PlanField(p planning.Plan) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("plan", p.String()).Int("plan_length", p.Len())
	}
}

// StateField adds a rendered state under key.
func StateField(key string, s planning.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, s.String())
	}
}

// Strategy adds the search strategy field.
func Strategy(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("strategy", name)
	}
}

// Expanded adds the number of expanded search nodes.
func Expanded(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("expanded", n)
	}
}

// Depth adds a search depth field.
func Depth(d int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("depth", d)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// Cached adds a cached flag field.
func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("cached", cached)
	}
}

// ErrorField adds an error field and its planning error kind.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err).Str("error_kind", planning.ErrorKind(err))
	}
}

// Component adds a component field.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Path adds a file path field.
func Path(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("path", p)
	}
}

// Str adds a custom string field.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds a custom integer field.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}
