package planning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan is an ordered sequence of operator names.
type Plan []string

// Len returns the number of actions.
func (p Plan) Len() int {
	return len(p)
}

// Clone returns an independent copy.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	return append(Plan(nil), p...)
}

// Equal reports whether both plans list the same actions in the same order.
func (p Plan) Equal(other Plan) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String renders the plan as a bracketed list.
func (p Plan) String() string {
	return "[" + strings.Join(p, ", ") + "]"
}

// Simulate applies the plan's operators in order from start and returns the
// final state. It fails on unknown names and inapplicable steps.
func (p Plan) Simulate(ops *OperatorSet, start State) (State, error) {
	steps, err := ops.Lookup(p)
	if err != nil {
		return State{}, err
	}
	state := start
	for i, op := range steps {
		next, err := op.Apply(state)
		if err != nil {
			return State{}, fmt.Errorf("step %d: %w", i, err)
		}
		state = next
	}
	return state, nil
}

// Validate checks the plan is a legal application chain from start that ends
// in a state satisfying goal.
func (p Plan) Validate(ops *OperatorSet, start, goal State) error {
	final, err := p.Simulate(ops, start)
	if err != nil {
		return err
	}
	if !final.Satisfies(goal) {
		return fmt.Errorf("%w: plan ends in %s, goal conditions missing: %s",
			ErrIncompletablePlan, final, joinConditions(final.Missing(goal)))
	}
	return nil
}

// Counts returns the multiset of action names.
func (p Plan) Counts() map[string]int {
	counts := make(map[string]int, len(p))
	for _, name := range p {
		counts[name]++
	}
	return counts
}

// IsPermutationOf reports whether both plans hold the same multiset of actions.
func (p Plan) IsPermutationOf(other Plan) bool {
	if len(p) != len(other) {
		return false
	}
	counts := p.Counts()
	for _, name := range other {
		counts[name]--
		if counts[name] < 0 {
			return false
		}
	}
	return true
}

// IsSubsequenceOf reports whether p's actions appear in other in the same
// relative order.
func (p Plan) IsSubsequenceOf(other Plan) bool {
	i := 0
	for _, name := range other {
		if i < len(p) && p[i] == name {
			i++
		}
	}
	return i == len(p)
}

// ParsePlan parses a list of action names, either a JSON string array or
// text separated by commas, semicolons or newlines. Commas inside
// parentheses belong to the name, so "move(a,b), move(b,c)" has two steps.
func ParsePlan(raw string) (Plan, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Plan{}, nil
	}

	if strings.HasPrefix(text, "[") {
		var names []string
		if err := json.Unmarshal([]byte(text), &names); err == nil {
			return cleanPlan(names), nil
		}
	}

	items, err := splitConditions(trimBrackets(text))
	if err != nil {
		return nil, fmt.Errorf("plan %q: %v", raw, err)
	}
	return cleanPlan(items), nil
}

func cleanPlan(items []string) Plan {
	plan := make(Plan, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item); name != "" {
			plan = append(plan, name)
		}
	}
	return plan
}
