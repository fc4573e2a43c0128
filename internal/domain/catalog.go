// Package domain contains the core types of the churn prediction form.
//
// This file defines the field catalog: the ordered declaration of every
// customer attribute the form collects, loaded from fields.yaml.
package domain

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var defaultCatalogYAML []byte

// =============================================================================
// Field Types
// =============================================================================

// FieldKind describes how a field is entered and validated.
type FieldKind string

const (
	// FieldKindChoice is a categorical field restricted to a fixed option set.
	FieldKindChoice FieldKind = "choice"

	// FieldKindNumber is a free-form field that must parse as a number.
	FieldKindNumber FieldKind = "number"
)

// Valid checks if the field kind is known.
func (k FieldKind) Valid() bool {
	switch k {
	case FieldKindChoice, FieldKindNumber:
		return true
	default:
		return false
	}
}

// Encoding selects the JSON type a field is sent as.
type Encoding string

const (
	EncodeString Encoding = "string"
	EncodeNumber Encoding = "number"
)

// Option is one selectable value of a choice field.
type Option struct {
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

// UnmarshalYAML accepts either a bare scalar (value and label are the same)
// or a {value, label} mapping.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Value = node.Value
		o.Label = node.Value
		return nil
	}

	type plain Option
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	if p.Label == "" {
		p.Label = p.Value
	}
	*o = Option(p)
	return nil
}

// Field is a single declared form field.
type Field struct {
	Name        string    `yaml:"name"`
	Label       string    `yaml:"label"`
	Kind        FieldKind `yaml:"kind"`
	Encode      Encoding  `yaml:"encode"`
	Placeholder string    `yaml:"placeholder"`
	Options     []Option  `yaml:"options"`
	Min         string    `yaml:"min"`
	Step        string    `yaml:"step"`
}

// IsNumeric reports whether the field value must parse as a number.
func (f Field) IsNumeric() bool {
	return f.Kind == FieldKindNumber
}

// Encoding returns the JSON type the field is sent as. Number fields are
// always sent as numbers; choice fields default to strings.
func (f Field) Encoding() Encoding {
	if f.Kind == FieldKindNumber {
		return EncodeNumber
	}
	if f.Encode == "" {
		return EncodeString
	}
	return f.Encode
}

// HasOption reports whether value is one of the field's options.
func (f Field) HasOption(value string) bool {
	for _, o := range f.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// =============================================================================
// Catalog
// =============================================================================

// Catalog is the ordered, immutable set of fields the form collects.
type Catalog struct {
	fields  []Field
	index   map[string]int
	example FormState
}

type catalogFile struct {
	Fields  []Field           `yaml:"fields"`
	Example map[string]string `yaml:"example"`
}

// DefaultCatalog parses the embedded fields.yaml.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// MustDefaultCatalog parses the embedded fields.yaml or panics.
// The embedded file is part of the binary, so a failure is a build defect.
func MustDefaultCatalog() *Catalog {
	c, err := DefaultCatalog()
	if err != nil {
		panic("domain: embedded field catalog: " + err.Error())
	}
	return c
}

// ParseCatalog builds a Catalog from YAML and checks it for consistency.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Fields) == 0 {
		return nil, fmt.Errorf("parse catalog: no fields declared")
	}

	c := &Catalog{
		fields: make([]Field, 0, len(file.Fields)),
		index:  make(map[string]int, len(file.Fields)),
	}

	for i, f := range file.Fields {
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return nil, fmt.Errorf("parse catalog: field %d has no name", i)
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate field %q", f.Name)
		}
		if !f.Kind.Valid() {
			return nil, fmt.Errorf("parse catalog: field %q has unknown kind %q", f.Name, f.Kind)
		}
		if f.Kind == FieldKindChoice && len(f.Options) == 0 {
			return nil, fmt.Errorf("parse catalog: choice field %q has no options", f.Name)
		}
		if f.Encode != "" && f.Encode != EncodeString && f.Encode != EncodeNumber {
			return nil, fmt.Errorf("parse catalog: field %q has unknown encoding %q", f.Name, f.Encode)
		}
		if f.Label == "" {
			f.Label = f.Name
		}
		c.index[f.Name] = len(c.fields)
		c.fields = append(c.fields, f)
	}

	if len(file.Example) > 0 {
		example := make(FormState, len(file.Example))
		for name, value := range file.Example {
			if _, ok := c.index[name]; !ok {
				return nil, fmt.Errorf("parse catalog: example sets unknown field %q", name)
			}
			example[name] = value
		}
		c.example = example
	}

	return c, nil
}

// Fields returns the declared fields in order. The slice must not be modified.
func (c *Catalog) Fields() []Field {
	return c.fields
}

// Field looks up a field by name.
func (c *Catalog) Field(name string) (Field, bool) {
	i, ok := c.index[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// Has reports whether name is a declared field.
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Names returns the field names in declaration order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// EmptyState returns a FormState with every declared field set to "".
func (c *Catalog) EmptyState() FormState {
	state := make(FormState, len(c.fields))
	for _, f := range c.fields {
		state[f.Name] = ""
	}
	return state
}

// Example returns a fresh copy of the example record merged over an empty
// state, so undeclared example fields stay empty.
func (c *Catalog) Example() FormState {
	state := c.EmptyState()
	for name, value := range c.example {
		state[name] = value
	}
	return state
}
