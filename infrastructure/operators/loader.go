// Package operators loads operator sets from declarative documents.
//
// A document is a list of records, each with a name, preconditions and
// postconditions. It may also be wrapped in an object carrying an
// "operators" key. Condition descriptors are strings such as "on(robot,floor)"
// or tuples such as ["on", "robot", "floor"]; postconditions may be negated
// ("not dry(ladder)") to express deletions.
package operators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Format represents an operator document format.
type Format string

const (
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
)

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported operator file extension %q", planning.ErrOperatorLoad, filepath.Ext(path))
	}
}

// Record is the serialized form of one operator.
type Record struct {
	Name           *string       `json:"name" yaml:"name"`
	Preconditions  *[]Descriptor `json:"preconditions" yaml:"preconditions"`
	Postconditions *[]Descriptor `json:"postconditions" yaml:"postconditions"`
}

// Document is the wrapped form of an operator list.
type Document struct {
	Domain      string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Operators   []Record `json:"operators" yaml:"operators"`
}

// Descriptor is a condition descriptor: either text or a tuple.
type Descriptor string

// UnmarshalJSON accepts "pred(a,b)" and ["pred","a","b"].
func (d *Descriptor) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = Descriptor(s)
		return nil
	}
	var tuple []string
	if err := json.Unmarshal(b, &tuple); err != nil {
		return fmt.Errorf("condition descriptor must be a string or string list: %s", string(b))
	}
	return d.fromTuple(tuple)
}

// UnmarshalYAML accepts scalar and sequence descriptors.
func (d *Descriptor) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*d = Descriptor(value.Value)
		return nil
	case yaml.SequenceNode:
		var tuple []string
		if err := value.Decode(&tuple); err != nil {
			return err
		}
		return d.fromTuple(tuple)
	default:
		return fmt.Errorf("line %d: condition descriptor must be a string or list", value.Line)
	}
}

func (d *Descriptor) fromTuple(tuple []string) error {
	if len(tuple) == 0 {
		return errors.New("empty condition tuple")
	}
	negated := false
	if tuple[0] == "not" && len(tuple) > 1 {
		negated = true
		tuple = tuple[1:]
	}
	text := planning.NewCondition(tuple[0], tuple[1:]...).String()
	if negated {
		text = "not " + text
	}
	*d = Descriptor(text)
	return nil
}

// LoadFile loads an operator set from a JSON or YAML file.
func LoadFile(path string) (*planning.OperatorSet, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planning.ErrOperatorLoad, err)
	}
	return decode(data, format, path)
}

// LoadFS loads an operator set from a file in fsys.
func LoadFS(fsys fs.FS, name string) (*planning.OperatorSet, error) {
	format, err := FormatFromPath(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planning.ErrOperatorLoad, err)
	}
	return decode(data, format, name)
}

// Load reads an operator set from r.
func Load(r io.Reader, format Format) (*planning.OperatorSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", planning.ErrOperatorLoad, err)
	}
	return decode(data, format, "<reader>")
}

// LoadString reads an operator set from a string.
func LoadString(content string, format Format) (*planning.OperatorSet, error) {
	return decode([]byte(content), format, "<string>")
}

func decode(data []byte, format Format, source string) (*planning.OperatorSet, error) {
	records, err := decodeRecords(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", planning.ErrOperatorLoad, source, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no operators defined", planning.ErrOperatorLoad, source)
	}

	ops := make([]*planning.Operator, 0, len(records))
	for i, rec := range records {
		op, err := rec.operator()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: record %d: %w", planning.ErrOperatorLoad, source, i, err)
		}
		ops = append(ops, op)
	}

	set, err := planning.NewOperatorSet(ops...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", planning.ErrOperatorLoad, source, err)
	}
	return set, nil
}

func decodeRecords(data []byte, format Format) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	switch format {
	case FormatJSON:
		if trimmed[0] == '{' {
			var doc Document
			if err := json.Unmarshal(trimmed, &doc); err != nil {
				return nil, err
			}
			return doc.Operators, nil
		}
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil

	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(trimmed, &root); err != nil {
			return nil, err
		}
		if len(root.Content) == 0 {
			return nil, errors.New("empty document")
		}
		if root.Content[0].Kind == yaml.MappingNode {
			var doc Document
			if err := root.Content[0].Decode(&doc); err != nil {
				return nil, err
			}
			return doc.Operators, nil
		}
		var records []Record
		if err := root.Content[0].Decode(&records); err != nil {
			return nil, err
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func (r Record) operator() (*planning.Operator, error) {
	switch {
	case r.Name == nil:
		return nil, errors.New("missing field \"name\"")
	case r.Preconditions == nil:
		return nil, fmt.Errorf("%s: missing field \"preconditions\"", *r.Name)
	case r.Postconditions == nil:
		return nil, fmt.Errorf("%s: missing field \"postconditions\"", *r.Name)
	}

	pre := make([]planning.Condition, 0, len(*r.Preconditions))
	for _, d := range *r.Preconditions {
		lit, err := planning.ParseLiteral(string(d))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: precondition: %v", planning.ErrMalformedOperator, *r.Name, err)
		}
		if lit.Negated {
			return nil, fmt.Errorf("%w: %s: negated precondition %q", planning.ErrMalformedOperator, *r.Name, d)
		}
		pre = append(pre, lit.Condition)
	}

	post := make([]planning.Literal, 0, len(*r.Postconditions))
	for _, d := range *r.Postconditions {
		lit, err := planning.ParseLiteral(string(d))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: postcondition: %v", planning.ErrMalformedOperator, *r.Name, err)
		}
		post = append(post, lit)
	}

	return planning.NewOperator(*r.Name, pre, post)
}

// Encode writes an operator set as a document in the given format.
func Encode(w io.Writer, set *planning.OperatorSet, format Format) error {
	type out struct {
		Name           string   `json:"name" yaml:"name"`
		Preconditions  []string `json:"preconditions" yaml:"preconditions"`
		Postconditions []string `json:"postconditions" yaml:"postconditions"`
	}

	records := make([]out, 0, set.Len())
	for _, op := range set.Operators() {
		rec := out{Name: op.Name(), Preconditions: []string{}, Postconditions: []string{}}
		for _, c := range op.Preconditions() {
			rec.Preconditions = append(rec.Preconditions, c.String())
		}
		for _, l := range op.Postconditions() {
			rec.Postconditions = append(rec.Postconditions, l.String())
		}
		records = append(records, rec)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
