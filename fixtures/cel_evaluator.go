package fixtures

import (
	"fmt"
	"maps"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/glebziz/rtest/table"
	"github.com/glebziz/rtest/unit"
)

// CELVerifier checks rows against the verify expression of a definition.
// Record fields and fixtures are variables of the expression.
type CELVerifier struct {
	Expression string
	fixtures   map[string]any
	program    cel.Program
}

// NewCELVerifier compiles the verify expression of d once.
func NewCELVerifier(d Definition) (*CELVerifier, error) {
	if d.Verify == "" {
		return nil, &table.CaseError{Group: d.Group, Err: ErrNoVerify}
	}
	fields, err := d.Fields()
	if err != nil {
		return nil, &table.CaseError{Group: d.Group, Err: err}
	}
	fixtures, err := d.fixtureValues(fields)
	if err != nil {
		return nil, err
	}

	opts := []cel.EnvOption{cel.StdLib(), ext.Strings()}
	for _, f := range fields {
		ft, _ := Get(f.Type)
		opts = append(opts, cel.Variable(f.Name, ft.CELType()))
	}
	for name := range fixtures {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(d.Verify)
	if issues != nil && issues.Err() != nil {
		return nil, &table.CaseError{Group: d.Group, Err: fmt.Errorf("failed to compile CEL expression: %w", issues.Err())}
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CELVerifier{Expression: d.Verify, fixtures: fixtures, program: prg}, nil
}

// Eval evaluates the expression for row.
func (v *CELVerifier) Eval(row Row) (bool, error) {
	vars := maps.Clone(v.fixtures)
	if vars == nil {
		vars = map[string]any{}
	}
	maps.Copy(vars, row)

	out, _, err := v.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate CEL expression: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL expression did not return a boolean: got %T(%v)", out.Value(), out.Value())
	}
	return result, nil
}

// Verify is the verification routine of the definition's table.
func (v *CELVerifier) Verify(t unit.T, row Row) {
	t.Helper()
	ok, err := v.Eval(row)
	if err != nil {
		t.Fatalf("%s: %v", v.Expression, err)
		return
	}
	if !ok {
		t.Errorf("%s is false for %v", v.Expression, row)
	}
}

var _ table.Verify[Row] = (*CELVerifier)(nil).Verify
