package planning

import (
	"fmt"
	"strings"
)

// Operator is an immutable named action. Postconditions follow the negation
// convention: positive literals form the add list, negated literals the
// delete list. Applying an operator yields (state - Delete) + Add.
type Operator struct {
	name          string
	preconditions []Condition
	add           []Condition
	del           []Condition
}

// NewOperator validates and builds an operator.
func NewOperator(name string, preconditions []Condition, postconditions []Literal) (*Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrMalformedOperator)
	}

	pre := make([]Condition, 0, len(preconditions))
	seen := make(map[Condition]bool, len(preconditions))
	for _, c := range preconditions {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: precondition: %v", ErrMalformedOperator, name, err)
		}
		if !seen[c] {
			seen[c] = true
			pre = append(pre, c)
		}
	}

	var add, del []Condition
	effects := make(map[Condition]bool, len(postconditions))
	for _, lit := range postconditions {
		if err := lit.Condition.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: postcondition: %v", ErrMalformedOperator, name, err)
		}
		if prev, ok := effects[lit.Condition]; ok {
			if prev != lit.Negated {
				return nil, fmt.Errorf("%w: %s: %s is both added and deleted", ErrMalformedOperator, name, lit.Condition)
			}
			continue
		}
		effects[lit.Condition] = lit.Negated
		if lit.Negated {
			del = append(del, lit.Condition)
		} else {
			add = append(add, lit.Condition)
		}
	}

	return &Operator{
		name:          name,
		preconditions: pre,
		add:           add,
		del:           del,
	}, nil
}

// MustOperator is like NewOperator but panics on error. Intended for tests
// and static operator tables.
func MustOperator(name string, preconditions []Condition, postconditions []Literal) *Operator {
	op, err := NewOperator(name, preconditions, postconditions)
	if err != nil {
		panic(err)
	}
	return op
}

// Name returns the operator name.
func (o *Operator) Name() string {
	return o.name
}

// Preconditions returns a copy of the preconditions.
func (o *Operator) Preconditions() []Condition {
	return append([]Condition(nil), o.preconditions...)
}

// AddList returns a copy of the conditions made true.
func (o *Operator) AddList() []Condition {
	return append([]Condition(nil), o.add...)
}

// DeleteList returns a copy of the conditions made false.
func (o *Operator) DeleteList() []Condition {
	return append([]Condition(nil), o.del...)
}

// Postconditions returns the effects as literals, adds first.
func (o *Operator) Postconditions() []Literal {
	out := make([]Literal, 0, len(o.add)+len(o.del))
	for _, c := range o.add {
		out = append(out, Pos(c))
	}
	for _, c := range o.del {
		out = append(out, Neg(c))
	}
	return out
}

// IsApplicable reports whether the preconditions hold in s.
func (o *Operator) IsApplicable(s State) bool {
	return s.HasAll(o.preconditions)
}

// Apply returns the state produced by executing the operator in s.
func (o *Operator) Apply(s State) (State, error) {
	if !o.IsApplicable(s) {
		return State{}, fmt.Errorf("%w: %s in %s (missing %s)",
			ErrInapplicableOperator, o.name, s, joinConditions(o.missing(s)))
	}
	return s.Apply(o.add, o.del), nil
}

func (o *Operator) missing(s State) []Condition {
	var out []Condition
	for _, c := range o.preconditions {
		if !s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Threatens reports whether applying o deletes a precondition of other.
func (o *Operator) Threatens(other *Operator) bool {
	if o == nil || other == nil {
		return false
	}
	for _, d := range o.del {
		for _, p := range other.preconditions {
			if d == p {
				return true
			}
		}
	}
	return false
}

// Achieves reports whether the operator adds c.
func (o *Operator) Achieves(c Condition) bool {
	for _, a := range o.add {
		if a == c {
			return true
		}
	}
	return false
}

// String renders the operator for logs.
func (o *Operator) String() string {
	lits := o.Postconditions()
	post := make([]string, len(lits))
	for i, l := range lits {
		post[i] = l.String()
	}
	return fmt.Sprintf("%s: pre={%s} post={%s}", o.name, joinConditions(o.preconditions), strings.Join(post, ", "))
}

func joinConditions(conds []Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
