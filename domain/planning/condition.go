// Package planning provides the domain model for goal-directed STRIPS planning.
package planning

import (
	"fmt"
	"strings"
)

// argSep joins condition arguments into a single comparable string.
const argSep = "\x1f"

// Condition is an atomic, ground fact about the world such as on(robot,floor).
// Conditions are comparable values: two conditions with equal content are the same fact.
type Condition struct {
	Predicate string
	args      string
}

// NewCondition creates a condition from a predicate and its arguments.
func NewCondition(predicate string, args ...string) Condition {
	return Condition{
		Predicate: predicate,
		args:      strings.Join(args, argSep),
	}
}

// Args returns the condition arguments.
func (c Condition) Args() []string {
	if c.args == "" {
		return nil
	}
	return strings.Split(c.args, argSep)
}

// Arity returns the number of arguments.
func (c Condition) Arity() int {
	if c.args == "" {
		return 0
	}
	return strings.Count(c.args, argSep) + 1
}

// IsZero reports whether the condition is empty.
func (c Condition) IsZero() bool {
	return c.Predicate == "" && c.args == ""
}

// String renders the condition as pred(a,b), or pred when nullary.
func (c Condition) String() string {
	if c.args == "" {
		return c.Predicate
	}
	return c.Predicate + "(" + strings.ReplaceAll(c.args, argSep, ",") + ")"
}

// Validate checks that the predicate and every argument are usable tokens.
func (c Condition) Validate() error {
	if err := validToken(c.Predicate); err != nil {
		return fmt.Errorf("predicate: %w", err)
	}
	for i, arg := range c.Args() {
		if err := validToken(arg); err != nil {
			return fmt.Errorf("argument %d of %s: %w", i, c.Predicate, err)
		}
	}
	return nil
}

func validToken(s string) error {
	if s == "" {
		return fmt.Errorf("empty token")
	}
	if strings.ContainsAny(s, "(),:;{}[]\"") || strings.IndexFunc(s, isSpace) >= 0 {
		return fmt.Errorf("invalid token %q", s)
	}
	return nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// ParseCondition parses a textual condition. Accepted forms:
//   - pred(a, b)
//   - pred
//   - key:value, shorthand for key(value)
func ParseCondition(text string) (Condition, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Condition{}, fmt.Errorf("empty condition")
	}

	var c Condition
	switch {
	case strings.Contains(s, "("):
		open := strings.Index(s, "(")
		if !strings.HasSuffix(s, ")") || strings.Count(s, "(") != 1 || strings.Count(s, ")") != 1 {
			return Condition{}, fmt.Errorf("unbalanced parentheses in %q", text)
		}
		pred := strings.TrimSpace(s[:open])
		inner := strings.TrimSpace(s[open+1 : len(s)-1])
		var args []string
		if inner != "" {
			for _, a := range strings.Split(inner, ",") {
				args = append(args, strings.TrimSpace(a))
			}
		}
		c = NewCondition(pred, args...)
	case strings.Contains(s, ":"):
		parts := strings.SplitN(s, ":", 2)
		value := strings.TrimSpace(parts[1])
		if value == "" {
			return Condition{}, fmt.Errorf("condition %q: missing value", text)
		}
		c = NewCondition(strings.TrimSpace(parts[0]), value)
	default:
		c = NewCondition(s)
	}

	if err := c.Validate(); err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", text, err)
	}
	return c, nil
}

// Literal is a possibly negated condition used in operator postconditions.
// Negated literals delete their condition from the state when applied.
type Literal struct {
	Condition Condition
	Negated   bool
}

// Pos returns a positive literal.
func Pos(c Condition) Literal {
	return Literal{Condition: c}
}

// Neg returns a negated literal.
func Neg(c Condition) Literal {
	return Literal{Condition: c, Negated: true}
}

// String renders the literal; negated literals carry a "not " prefix.
func (l Literal) String() string {
	if l.Negated {
		return "not " + l.Condition.String()
	}
	return l.Condition.String()
}

// negationPrefixes lists the textual markers of a negated literal.
var negationPrefixes = []string{"not ", "!", "¬"}

// ParseLiteral parses a condition that may carry a negation prefix
// ("not ", "!" or "¬").
func ParseLiteral(text string) (Literal, error) {
	s := strings.TrimSpace(text)
	negated := false
	for _, prefix := range negationPrefixes {
		if strings.HasPrefix(strings.ToLower(s), prefix) {
			negated = true
			s = s[len(prefix):]
			break
		}
	}
	c, err := ParseCondition(s)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Condition: c, Negated: negated}, nil
}
