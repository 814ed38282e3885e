// Package table expands a declarative case table into test units.
//
// A table carries a group name, fixture declarations, an ordered list of
// entries of one case-record type C, and is expanded with a single
// verification routine:
//
//	const testStr = "Hello"
//
//	type lengthCase struct {
//	    input    string
//	    expected int
//	}
//
//	var stringLength = table.New[lengthCase]("string_length").
//	    Case("empty_string", lengthCase{"", 0}).
//	    Skip("null_string", lengthCase{"\x00", 1}).
//	    Case("hello_string", lengthCase{testStr, len(testStr)})
//
//	func TestStringLength(t *testing.T) {
//	    stringLength.Run(t, func(t unit.T, tc lengthCase) {
//	        assert.Equal(t, tc.expected, len(tc.input))
//	    })
//	}
//
// Every entry becomes exactly one unit named "<group>/<case>". Skipped entries
// are registered as skipped and their values are never handed to the
// verification routine.
package table

import (
	"fmt"
	"testing"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"

	"github.com/glebziz/rtest/unit"
)

// Entry is one named row of a table.
type Entry[C any] struct {
	Name  string `json:"name" yaml:"name"`
	Skip  bool   `json:"skip,omitempty" yaml:"skip,omitempty"`
	Value C      `json:"value" yaml:"value"`
}

// Verify is the routine shared by every entry of a table. It signals failure
// through t or by panicking.
type Verify[C any] func(t unit.T, tc C)

// Cloner is implemented by case records holding references (maps, slices)
// that must not be shared between invocations.
type Cloner[C any] interface {
	Clone() C
}

// Table is one group of entries sharing fixtures, a record type and a
// verification routine.
type Table[C any] struct {
	Group    string
	Fixtures map[string]any
	Entries  []Entry[C]
	// Trace receives the RUN/PASS/FAIL lines of the expanded units, defaults
	// to unit.Stdout.
	Trace *unit.Trace
}

// New returns an empty table for group. An empty group name expands to
// ungrouped units.
func New[C any](group string) *Table[C] {
	return &Table[C]{Group: group, Fixtures: map[string]any{}}
}

// Fixture declares a named constant shared by the group.
func (tb *Table[C]) Fixture(name string, value any) *Table[C] {
	if tb.Fixtures == nil {
		tb.Fixtures = map[string]any{}
	}
	tb.Fixtures[name] = value
	return tb
}

// Lookup returns a fixture declared on the table.
func (tb *Table[C]) Lookup(name string) (any, bool) {
	v, ok := tb.Fixtures[name]
	return v, ok
}

// Case appends an entry that runs.
func (tb *Table[C]) Case(name string, value C) *Table[C] {
	return tb.Add(Entry[C]{Name: name, Value: value})
}

// Skip appends an entry that is registered but not run.
func (tb *Table[C]) Skip(name string, value C) *Table[C] {
	return tb.Add(Entry[C]{Name: name, Skip: true, Value: value})
}

// Add appends entries in order.
func (tb *Table[C]) Add(entries ...Entry[C]) *Table[C] {
	tb.Entries = append(tb.Entries, entries...)
	return tb
}

// WithTrace sets the trace of the expanded units.
func (tb *Table[C]) WithTrace(tr *unit.Trace) *Table[C] {
	tb.Trace = tr
	return tb
}

// Names returns the entry names in order.
func (tb *Table[C]) Names() []string {
	return lo.Map(tb.Entries, func(e Entry[C], _ int) string { return e.Name })
}

// Filter returns a copy of the table keeping the entries for which keep
// returns true.
func (tb *Table[C]) Filter(keep func(e Entry[C]) bool) *Table[C] {
	out := *tb
	out.Entries = lo.Filter(tb.Entries, func(e Entry[C], _ int) bool { return keep(e) })
	return &out
}

func (tb *Table[C]) String() string {
	skipped := lo.CountBy(tb.Entries, func(e Entry[C]) bool { return e.Skip })
	return fmt.Sprintf("%s: %d cases, %d skipped", displayGroup(tb.Group), len(tb.Entries), skipped)
}

// Expand validates the table and returns one unit per entry, in order. On a
// structural error no units are returned.
func (tb *Table[C]) Expand(verify Verify[C]) ([]unit.Unit, error) {
	if err := tb.Validate(); err != nil {
		return nil, err
	}
	if verify == nil {
		return nil, &CaseError{Group: tb.Group, Err: ErrNoVerify}
	}

	units := make([]unit.Unit, 0, len(tb.Entries))
	for _, e := range tb.Entries {
		units = append(units, unit.Unit{
			Name:  e.Name,
			Group: tb.Group,
			Skip:  e.Skip,
			Body:  bind(verify, e.Value),
		})
	}
	logger.Debugf("expanded %s", tb)
	return units, nil
}

// bind captures value by copy. Records implementing Cloner are cloned again
// for every invocation.
func bind[C any](verify Verify[C], value C) unit.Body {
	return func(t unit.T) {
		tc := value
		if c, ok := any(value).(Cloner[C]); ok {
			tc = c.Clone()
		}
		verify(t, tc)
	}
}

// RunOn expands the table and registers its units on host, beneath a unit
// named after the group when the table has one. Structural errors are
// returned before anything is registered.
func (tb *Table[C]) RunOn(host unit.Host, verify Verify[C]) error {
	units, err := tb.Expand(verify)
	if err != nil {
		return err
	}

	synth := unit.Synthesizer{Trace: tb.Trace}
	if tb.Group == "" {
		synth.RegisterAll(host, units)
		return nil
	}

	host.Run(tb.Group, func(t unit.T) {
		sub, ok := unit.Within(t)
		if !ok {
			t.Fatalf("%s: %T cannot run nested units", tb.Group, t)
			return
		}
		synth.RegisterAll(sub, units)
	})
	return nil
}

// Run registers the table's units as subtests of t. A malformed table fails t
// before any unit is registered.
func (tb *Table[C]) Run(t *testing.T, verify Verify[C]) {
	t.Helper()
	if err := tb.RunOn(unit.Testing(t), verify); err != nil {
		t.Fatalf("%v", err)
	}
}
