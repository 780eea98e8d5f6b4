// Package dispatch maps problem types to planner and state constructors.
package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Registry errors.
var (
	// ErrInvalidEntry indicates a registration with an empty problem type.
	ErrInvalidEntry = errors.New("invalid registry entry")

	// ErrEntryExists indicates the problem type is already registered.
	ErrEntryExists = errors.New("problem type already registered")
)

// Entry binds a problem type to its constructors. An entry with a nil
// NewPlanner is registered but not implemented.
type Entry struct {
	NewPlanner  planning.PlannerConstructor
	NewState    planning.StateConstructor
	Description string
}

// Implemented reports whether the entry can build a planner.
func (e Entry) Implemented() bool {
	return e.NewPlanner != nil && e.NewState != nil
}

// Info describes a registered problem type.
type Info struct {
	ProblemType string
	Description string
	Implemented bool
}

// Registry is an in-memory problem type registry. Lookups are exact and
// case-sensitive.
type Registry struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register adds a problem type to the registry.
func (r *Registry) Register(problemType string, e Entry) error {
	if problemType == "" {
		return fmt.Errorf("%w: empty problem type", ErrInvalidEntry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[problemType]; exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, problemType)
	}

	r.entries[problemType] = e
	return nil
}

// Resolve returns the constructors for problemType. Unknown types yield
// ErrUnknownProblemType listing the registered types; registered types
// without constructors yield ErrNotImplementedPlanner.
func (r *Registry) Resolve(problemType string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[problemType]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("%w: %q (registered: %s)",
			planning.ErrUnknownProblemType, problemType, strings.Join(r.Types(), ", "))
	}
	if !e.Implemented() {
		return Entry{}, fmt.Errorf("%w: %s", planning.ErrNotImplementedPlanner, problemType)
	}
	return e, nil
}

// Types returns all registered problem types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.entries))
	for name := range r.entries {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Describe lists every registered problem type, sorted.
func (r *Registry) Describe() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Info, 0, len(r.entries))
	for name, e := range r.entries {
		result = append(result, Info{
			ProblemType: name,
			Description: e.Description,
			Implemented: e.Implemented(),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ProblemType < result[j].ProblemType })
	return result
}

// Len returns the number of registered problem types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
