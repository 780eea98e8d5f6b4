package planning

import (
	"fmt"
	"sort"
)

// OperatorSet is the immutable, declaration-ordered operator vocabulary of a
// planner. It is safe for concurrent reads.
type OperatorSet struct {
	ordered []*Operator
	byName  map[string]*Operator
	maxAdd  int
}

// NewOperatorSet builds a set from operators in declaration order.
// Duplicate names are rejected.
func NewOperatorSet(ops ...*Operator) (*OperatorSet, error) {
	set := &OperatorSet{
		ordered: make([]*Operator, 0, len(ops)),
		byName:  make(map[string]*Operator, len(ops)),
	}
	for i, op := range ops {
		if op == nil {
			return nil, fmt.Errorf("%w: operator %d is nil", ErrMalformedOperator, i)
		}
		if _, exists := set.byName[op.Name()]; exists {
			return nil, fmt.Errorf("%w: duplicate operator name %q", ErrMalformedOperator, op.Name())
		}
		set.byName[op.Name()] = op
		set.ordered = append(set.ordered, op)
		if n := len(op.add); n > set.maxAdd {
			set.maxAdd = n
		}
	}
	return set, nil
}

// Get looks up an operator by name.
func (s *OperatorSet) Get(name string) (*Operator, bool) {
	op, ok := s.byName[name]
	return op, ok
}

// Lookup resolves every name of a plan, failing on the first unknown one.
func (s *OperatorSet) Lookup(plan Plan) ([]*Operator, error) {
	ops := make([]*Operator, len(plan))
	for i, name := range plan {
		op, ok := s.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrUnknownOperator, name, i)
		}
		ops[i] = op
	}
	return ops, nil
}

// Operators returns the operators in declaration order.
func (s *OperatorSet) Operators() []*Operator {
	return append([]*Operator(nil), s.ordered...)
}

// Names returns operator names in declaration order.
func (s *OperatorSet) Names() []string {
	names := make([]string, len(s.ordered))
	for i, op := range s.ordered {
		names[i] = op.Name()
	}
	return names
}

// Len returns the number of operators.
func (s *OperatorSet) Len() int {
	return len(s.ordered)
}

// MaxAddSize returns the largest add list of any operator.
func (s *OperatorSet) MaxAddSize() int {
	return s.maxAdd
}

// Predicates maps every predicate mentioned by the operators to its arity.
func (s *OperatorSet) Predicates() map[string]int {
	preds := make(map[string]int)
	record := func(cs []Condition) {
		for _, c := range cs {
			preds[c.Predicate] = c.Arity()
		}
	}
	for _, op := range s.ordered {
		record(op.preconditions)
		record(op.add)
		record(op.del)
	}
	return preds
}

// Achievable reports whether some operator adds c.
func (s *OperatorSet) Achievable(c Condition) bool {
	for _, op := range s.ordered {
		if op.Achieves(c) {
			return true
		}
	}
	return false
}

// PredicateNames returns the sorted predicate names used by the set.
func (s *OperatorSet) PredicateNames() []string {
	preds := s.Predicates()
	names := make([]string, 0, len(preds))
	for name := range preds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
