package fixtures

import (
	"fmt"
	"go/token"
	"maps"
	"regexp"
	"sort"
	"strings"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
)

// Definition is one group of a table file: the fixtures, the record type, the
// verification expression and the ordered cases.
type Definition struct {
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
	// Package is the Go package of generated test files.
	Package  string         `yaml:"package,omitempty" json:"package,omitempty"`
	Fixtures map[string]any `yaml:"fixtures,omitempty" json:"fixtures,omitempty"`
	// Record declares the case-record fields as "name type" pairs, in order.
	Record []string `yaml:"record,omitempty" json:"record,omitempty"`
	// Verify is a CEL expression over the record fields and fixtures.
	Verify string `yaml:"verify,omitempty" json:"verify,omitempty"`
	// VerifyFunc names the Go verification routine of generated test files.
	VerifyFunc string     `yaml:"verifyFunc,omitempty" json:"verifyFunc,omitempty"`
	Cases      []CaseSpec `yaml:"cases,omitempty" json:"cases,omitempty"`

	// Source is the file the definition was read from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// CaseSpec is one case as written in a table file. Values hold raw cell text
// (markdown) or decoded YAML values, keyed by field name.
type CaseSpec struct {
	Name   string         `yaml:"name" json:"name"`
	Skip   bool           `yaml:"skip,omitempty" json:"skip,omitempty"`
	Values map[string]any `yaml:"values,omitempty" json:"values,omitempty"`
}

// Field is one declared field of the case record.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (f Field) String() string {
	return f.Name + " " + f.Type
}

// Row is a case-record value of a table file, keyed by field name.
type Row map[string]any

// Clone copies the row so an invocation cannot leak changes into the next one.
func (r Row) Clone() Row {
	return maps.Clone(r)
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// isIdentifier reports whether name can name a field or fixture: an ASCII
// identifier that is not a Go keyword.
func isIdentifier(name string) bool {
	return identifier.MatchString(name) && !token.IsKeyword(name)
}

// Fields parses the record declaration.
func (d Definition) Fields() ([]Field, error) {
	if len(d.Record) == 0 {
		return nil, ErrNoRecord
	}
	fields := make([]Field, 0, len(d.Record))
	seen := map[string]bool{}
	for _, decl := range d.Record {
		parts := strings.Fields(decl)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q, expected \"name type\"", ErrInvalidField, decl)
		}
		name, typ := parts[0], parts[1]
		if !isIdentifier(name) {
			return nil, fmt.Errorf("%w: %q is not an identifier", ErrInvalidField, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q declared twice", ErrInvalidField, name)
		}
		if _, ok := Get(typ); !ok {
			return nil, fmt.Errorf("%w: %q for field %q", ErrUnknownType, typ, name)
		}
		seen[name] = true
		fields = append(fields, Field{Name: name, Type: typ})
	}
	return fields, nil
}

// FixtureNames returns the fixture names in sorted order.
func (d Definition) FixtureNames() []string {
	names := make([]string, 0, len(d.Fixtures))
	for name := range d.Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Inherit fills the settings d leaves empty from parent. Fixtures are merged,
// the ones of d winning.
func (d Definition) Inherit(parent Definition) Definition {
	if d.Package == "" {
		d.Package = parent.Package
	}
	if len(d.Record) == 0 {
		d.Record = parent.Record
	}
	if d.Verify == "" {
		d.Verify = parent.Verify
	}
	if d.VerifyFunc == "" {
		d.VerifyFunc = parent.VerifyFunc
	}
	if d.Source == "" {
		d.Source = parent.Source
	}
	if len(parent.Fixtures) > 0 {
		merged := maps.Clone(parent.Fixtures)
		maps.Copy(merged, d.Fixtures)
		d.Fixtures = merged
	}
	return d
}

func (d Definition) String() string {
	return fmt.Sprintf("%s (%d cases)", d.Group, len(d.Cases))
}

func (d Definition) Pretty() api.Text {
	t := clicky.Text(d.Group, "font-bold text-blue-600")
	if len(d.Record) > 0 {
		t = t.Append(" {"+strings.Join(d.Record, ", ")+"}", "text-gray-500")
	}
	if d.Verify != "" {
		t = t.Space().Append(d.Verify, "text-cyan-600")
	}
	return t
}
