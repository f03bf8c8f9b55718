package schema

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindText     Kind = "text"
	KindNumber   Kind = "number"
	KindEnum     Kind = "enum"
	KindDuration Kind = "duration"
)

func (k Kind) valid() bool {
	switch k {
	case KindText, KindNumber, KindEnum, KindDuration:
		return true
	}
	return false
}

// Numeric reports whether values of this kind are stored as float64.
func (k Kind) Numeric() bool { return k == KindNumber }

// HeaderPolicy controls whether a pasted first row that looks like column
// headers is dropped.
type HeaderPolicy string

const (
	HeaderDetect HeaderPolicy = "detect"
	HeaderNever  HeaderPolicy = "never"
)

type Field struct {
	Name     string   `yaml:"name"`
	Label    string   `yaml:"label"`
	Kind     Kind     `yaml:"kind"`
	Editable bool     `yaml:"editable"`
	Default  string   `yaml:"default"`
	Options  []string `yaml:"options"`
	Aliases  []string `yaml:"aliases"`
	Width    int      `yaml:"width"`
}

func (f Field) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Term is one product inside a Formula.
type Term []string

// Formula computes a derived field as a sum of products of numeric fields.
type Formula struct {
	Target string `yaml:"target"`
	Terms  []Term `yaml:"terms"`
}

func (f Formula) Eval(num func(field string) float64) float64 {
	var total float64
	for _, term := range f.Terms {
		if len(term) == 0 {
			continue
		}
		p := 1.0
		for _, name := range term {
			p *= num(name)
		}
		total += p
	}
	return total
}

func (f Formula) String() string {
	parts := make([]string, 0, len(f.Terms))
	for _, term := range f.Terms {
		parts = append(parts, strings.Join(term, "*"))
	}
	return f.Target + " = " + strings.Join(parts, " + ")
}

type Schema struct {
	Type      string       `yaml:"type"`
	Title     string       `yaml:"title"`
	Fields    []Field      `yaml:"fields"`
	Formula   Formula      `yaml:"formula"`
	HeaderRow HeaderPolicy `yaml:"header_row"`

	index    map[string]int
	editable []string
}

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalid      = errors.New("invalid schema")
)

// Validate checks the descriptor list and builds lookup tables. It must be
// called before the schema is used; the built-ins and LoadFile do so.
func (s *Schema) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalid)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("%w: %s has no fields", ErrInvalid, s.Type)
	}
	if s.HeaderRow == "" {
		s.HeaderRow = HeaderNever
	}
	if s.HeaderRow != HeaderDetect && s.HeaderRow != HeaderNever {
		return fmt.Errorf("%w: %s: header_row %q", ErrInvalid, s.Type, s.HeaderRow)
	}

	s.index = make(map[string]int, len(s.Fields))
	s.editable = s.editable[:0]
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s: field %d has no name", ErrInvalid, s.Type, i)
		}
		if !f.Kind.valid() {
			return fmt.Errorf("%w: %s.%s: kind %q", ErrInvalid, s.Type, f.Name, f.Kind)
		}
		if _, dup := s.index[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate field %s", ErrInvalid, s.Type, f.Name)
		}
		if f.Kind == KindEnum && len(f.Options) == 0 {
			return fmt.Errorf("%w: %s.%s: enum without options", ErrInvalid, s.Type, f.Name)
		}
		s.index[f.Name] = i
		if f.Editable {
			s.editable = append(s.editable, f.Name)
		}
	}
	if len(s.editable) == 0 {
		return fmt.Errorf("%w: %s has no editable fields", ErrInvalid, s.Type)
	}

	if s.Formula.Target != "" {
		target, ok := s.Field(s.Formula.Target)
		if !ok {
			return fmt.Errorf("%w: %s: formula target %s", ErrUnknownField, s.Type, s.Formula.Target)
		}
		if target.Editable || target.Kind != KindNumber {
			return fmt.Errorf("%w: %s: formula target %s must be a read-only number", ErrInvalid, s.Type, target.Name)
		}
		for _, term := range s.Formula.Terms {
			for _, name := range term {
				f, ok := s.Field(name)
				if !ok {
					return fmt.Errorf("%w: %s: formula operand %s", ErrUnknownField, s.Type, name)
				}
				if f.Kind != KindNumber || name == target.Name {
					return fmt.Errorf("%w: %s: formula operand %s must be another number field", ErrInvalid, s.Type, name)
				}
			}
		}
	}
	return nil
}

func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Position returns the field's index in canonical order, or -1.
func (s *Schema) Position(name string) int {
	i, ok := s.index[name]
	if !ok {
		return -1
	}
	return i
}

// EditableFields returns the editable field names in canonical order.
func (s *Schema) EditableFields() []string {
	return append([]string(nil), s.editable...)
}

// EditablePosition returns the field's index among editable fields, or -1.
func (s *Schema) EditablePosition(name string) int {
	for i, n := range s.editable {
		if n == name {
			return i
		}
	}
	return -1
}

// Derived reports the name of the computed field, if the schema has one.
func (s *Schema) Derived() (string, bool) {
	return s.Formula.Target, s.Formula.Target != ""
}

// HeaderVocabulary returns every lower-cased name, label and alias.
func (s *Schema) HeaderVocabulary() map[string]bool {
	vocab := make(map[string]bool)
	for _, f := range s.Fields {
		vocab[strings.ToLower(f.Name)] = true
		if f.Label != "" {
			vocab[strings.ToLower(f.Label)] = true
		}
		for _, a := range f.Aliases {
			vocab[strings.ToLower(a)] = true
		}
	}
	return vocab
}

// WithHeaderPolicy returns a copy of s using policy p.
func (s *Schema) WithHeaderPolicy(p HeaderPolicy) *Schema {
	c := *s
	c.HeaderRow = p
	c.Fields = append([]Field(nil), s.Fields...)
	c.editable = nil
	if err := c.Validate(); err != nil {
		return s
	}
	return &c
}
