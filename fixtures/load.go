package fixtures

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flanksource/gomplate/v3"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"

	"github.com/glebziz/rtest/table"
)

// Entries converts the cases of d into typed rows, in order. Missing fields
// take the zero value of their type, string values are rendered as templates
// against the fixtures first.
func (d Definition) Entries() ([]table.Entry[Row], error) {
	fields, err := d.Fields()
	if err != nil {
		return nil, &table.CaseError{Group: d.Group, Err: err}
	}
	fixtures, err := d.fixtureValues(fields)
	if err != nil {
		return nil, err
	}

	byName := lo.SliceToMap(fields, func(f Field) (string, Field) {
		return strings.ToLower(f.Name), f
	})

	entries := make([]table.Entry[Row], 0, len(d.Cases))
	for _, c := range d.Cases {
		row, err := convertCase(c, fields, byName, fixtures)
		if err != nil {
			return nil, &table.CaseError{Group: d.Group, Case: c.Name, Err: err}
		}
		entries = append(entries, table.Entry[Row]{Name: c.Name, Skip: c.Skip, Value: row})
	}
	return entries, nil
}

func convertCase(c CaseSpec, fields []Field, byName map[string]Field, fixtures map[string]any) (Row, error) {
	keys := lo.Keys(c.Values)
	sort.Strings(keys)
	values := make(map[string]any, len(keys))
	for _, key := range keys {
		lower := strings.ToLower(key)
		if _, ok := values[lower]; !ok {
			values[lower] = c.Values[key]
		}
	}

	row := Row{}
	for _, f := range fields {
		ft, _ := Get(f.Type)
		raw, ok := values[strings.ToLower(f.Name)]
		if !ok {
			row[f.Name] = ft.Zero()
			continue
		}
		if s, ok := raw.(string); ok && strings.Contains(s, "{{") {
			rendered, err := gomplate.RunTemplate(fixtures, gomplate.Template{
				Template: s,
			})
			if err != nil {
				return nil, fmt.Errorf("field %q: failed to render %q: %w", f.Name, s, err)
			}
			raw = rendered
		}
		value, err := ft.Coerce(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		row[f.Name] = value
	}

	for _, key := range keys {
		if _, ok := byName[strings.ToLower(key)]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
	}
	return row, nil
}

// fixtureValues normalizes decoded fixture values and rejects fixtures named
// like a record field.
func (d Definition) fixtureValues(fields []Field) (map[string]any, error) {
	out := make(map[string]any, len(d.Fixtures))
	for name, v := range d.Fixtures {
		if !isIdentifier(name) {
			return nil, &table.CaseError{Group: d.Group, Err: fmt.Errorf("%w: fixture %q", table.ErrInvalidName, name)}
		}
		if lo.ContainsBy(fields, func(f Field) bool { return f.Name == name }) {
			return nil, &table.CaseError{Group: d.Group, Err: fmt.Errorf("%w: %q", ErrFixtureClash, name)}
		}
		out[name] = normalize(v)
	}
	return out, nil
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case uint32:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	}
	return v
}

// Rows builds the table of d with untyped rows, the form the CEL verifier
// consumes. The table is validated before it is returned.
func Rows(d Definition) (*table.Table[Row], error) {
	entries, err := d.Entries()
	if err != nil {
		return nil, err
	}
	fields, _ := d.Fields()
	fixtures, _ := d.fixtureValues(fields)

	tb := table.New[Row](d.Group).Add(entries...)
	for name, v := range fixtures {
		tb.Fixture(name, v)
	}
	if err := tb.Validate(); err != nil {
		return nil, err
	}
	return tb, nil
}

// Load builds the table of d with rows decoded into C. Field names are the
// yaml keys of C:
//
//	type lengthCase struct {
//	    Input    string `yaml:"input"`
//	    Expected int    `yaml:"expected"`
//	}
//
//	tb, err := fixtures.Load[lengthCase](def)
func Load[C any](d Definition) (*table.Table[C], error) {
	rows, err := Rows(d)
	if err != nil {
		return nil, err
	}

	tb := table.New[C](rows.Group)
	tb.Fixtures = rows.Fixtures
	for _, e := range rows.Entries {
		var value C
		if err := decodeRow(e.Value, &value); err != nil {
			return nil, &table.CaseError{Group: d.Group, Case: e.Name, Err: err}
		}
		tb.Add(table.Entry[C]{Name: e.Name, Skip: e.Skip, Value: value})
	}
	return tb, nil
}

func decodeRow(row Row, out any) error {
	plain := make(map[string]any, len(row))
	for k, v := range row {
		if d, ok := v.(time.Duration); ok {
			v = d.String()
		}
		plain[k] = v
	}
	data, err := yaml.Marshal(plain)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode row into %T: %w", out, err)
	}
	return nil
}
