package planning

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// State is an immutable set of conditions describing a world snapshot.
// Every transition produces a new State; the zero value is the empty state.
type State struct {
	conds map[Condition]struct{}
	key   string
}

// NewState creates a state from conditions, dropping duplicates.
func NewState(conds ...Condition) State {
	set := make(map[Condition]struct{}, len(conds))
	for _, c := range conds {
		set[c] = struct{}{}
	}
	return newStateFromSet(set)
}

func newStateFromSet(set map[Condition]struct{}) State {
	s := State{conds: set}
	s.key = s.computeKey()
	return s
}

func (s State) computeKey() string {
	parts := make([]string, 0, len(s.conds))
	for c := range s.conds {
		parts = append(parts, c.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Len returns the number of conditions.
func (s State) Len() int {
	return len(s.conds)
}

// Has reports whether the condition holds in the state.
func (s State) Has(c Condition) bool {
	_, ok := s.conds[c]
	return ok
}

// HasAll reports whether every condition holds in the state.
func (s State) HasAll(conds []Condition) bool {
	for _, c := range conds {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Satisfies reports whether goal's conditions are a subset of this state's.
func (s State) Satisfies(goal State) bool {
	if goal.Len() > s.Len() {
		return false
	}
	for c := range goal.conds {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Missing returns the goal conditions that do not hold, sorted.
func (s State) Missing(goal State) []Condition {
	var missing []Condition
	for c := range goal.conds {
		if !s.Has(c) {
			missing = append(missing, c)
		}
	}
	sortConditions(missing)
	return missing
}

// Conditions returns the conditions in canonical (sorted) order.
func (s State) Conditions() []Condition {
	out := make([]Condition, 0, len(s.conds))
	for c := range s.conds {
		out = append(out, c)
	}
	sortConditions(out)
	return out
}

// Apply returns a new state with del removed and add inserted.
func (s State) Apply(add, del []Condition) State {
	set := make(map[Condition]struct{}, len(s.conds)+len(add))
	for c := range s.conds {
		set[c] = struct{}{}
	}
	for _, c := range del {
		delete(set, c)
	}
	for _, c := range add {
		set[c] = struct{}{}
	}
	return newStateFromSet(set)
}

// Key returns a canonical string identifying the condition set.
// Equal states have equal keys.
func (s State) Key() string {
	return s.key
}

// Equal reports whether both states hold the same conditions.
func (s State) Equal(other State) bool {
	return s.key == other.key
}

// String renders the state as {c1, c2, ...}.
func (s State) String() string {
	return "{" + strings.ReplaceAll(s.key, ";", ", ") + "}"
}

// Strings returns the textual form of each condition in canonical order.
func (s State) Strings() []string {
	conds := s.Conditions()
	out := make([]string, len(conds))
	for i, c := range conds {
		out[i] = c.String()
	}
	return out
}

func sortConditions(conds []Condition) {
	sort.Slice(conds, func(i, j int) bool {
		return conds[i].String() < conds[j].String()
	})
}

// FromConditionsList parses a caller-supplied condition list into a State.
// Accepted forms:
//   - a JSON array of condition strings: ["on(robot,floor)", "dry(ladder)"]
//   - a JSON array of tuples: [["on","robot","floor"], ["dry","ladder"]]
//   - plain text separated by commas, semicolons or newlines; commas inside
//     parentheses do not split. Surrounding {} or [] are tolerated.
//
// Negated conditions are rejected: states only hold positive facts.
func FromConditionsList(raw string) (State, error) {
	conds, err := ParseConditionsList(raw)
	if err != nil {
		return State{}, err
	}
	return NewState(conds...), nil
}

// ParseConditionsList parses a condition list without building a State.
func ParseConditionsList(raw string) ([]Condition, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}

	var items []string
	if strings.HasPrefix(text, "[") {
		parsed, ok, err := parseJSONList(text)
		if err != nil {
			return nil, err
		}
		if ok {
			items = parsed
		}
	}
	if items == nil {
		split, err := splitConditions(trimBrackets(text))
		if err != nil {
			return nil, err
		}
		items = split
	}

	conds := make([]Condition, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		lit, err := ParseLiteral(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
		if lit.Negated {
			return nil, fmt.Errorf("%w: negated condition %q in state", ErrMalformedState, item)
		}
		conds = append(conds, lit.Condition)
	}
	return conds, nil
}

// parseJSONList decodes JSON string lists and tuple lists. ok is false when
// the text is not JSON at all, so the caller can fall back to plain text.
func parseJSONList(text string) ([]string, bool, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, false, nil
	}

	items := make([]string, 0, len(raw))
	for i, elem := range raw {
		var s string
		if err := json.Unmarshal(elem, &s); err == nil {
			items = append(items, s)
			continue
		}
		var tuple []string
		if err := json.Unmarshal(elem, &tuple); err != nil || len(tuple) == 0 {
			return nil, true, fmt.Errorf("%w: element %d is neither a string nor a string tuple", ErrMalformedState, i)
		}
		items = append(items, NewCondition(tuple[0], tuple[1:]...).String())
	}
	return items, true, nil
}

func trimBrackets(text string) string {
	if len(text) >= 2 {
		first, last := text[0], text[len(text)-1]
		if (first == '{' && last == '}') || (first == '[' && last == ']') {
			return text[1 : len(text)-1]
		}
	}
	return text
}

// splitConditions splits on top-level separators, keeping commas inside parentheses.
func splitConditions(text string) ([]string, error) {
	var (
		items []string
		cur   strings.Builder
		depth int
	)
	for _, r := range text {
		switch {
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedState)
			}
			cur.WriteRune(r)
		case (r == ',' && depth == 0) || r == ';' || r == '\n':
			if depth > 0 && r != ',' {
				return nil, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedState)
			}
			items = append(items, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unbalanced parentheses", ErrMalformedState)
	}
	items = append(items, cur.String())
	return items, nil
}
