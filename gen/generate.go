// Package gen renders table files into Go test files built on package table.
package gen

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"go/format"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/flanksource/commons/logger"
	"github.com/samber/lo"
	"golang.org/x/tools/txtar"

	"github.com/glebziz/rtest/fixtures"
	"github.com/glebziz/rtest/table"
)

const tablePackage = "github.com/glebziz/rtest/table"

var (
	ErrDuplicateGroup   = errors.New("group declared twice")
	ErrFixtureConflict  = errors.New("fixture declared with different values")
	ErrUnsupportedValue = errors.New("value has no Go literal")
	ErrInvalidVerify    = errors.New("invalid verification function name")
	ErrNameCollision    = errors.New("generated Go name collides")
)

// FormatError is returned when generated code fails to format
type FormatError struct {
	OriginalError error
	Source        string // The unformatted source code
	LineNum       int
	Column        int
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting error at line %d:%d: %v", e.LineNum, e.Column, e.OriginalError)
}

func (e *FormatError) Unwrap() error {
	return e.OriginalError
}

//go:embed templates.txt
var defaultTemplates string

var fileTemplate = loadTemplates(defaultTemplates)

func loadTemplates(data string) *template.Template {
	archive := txtar.Parse([]byte(data))
	templates := make(map[string]string)
	for _, file := range archive.Files {
		templates[file.Name] = string(file.Data)
	}
	return template.Must(template.New("file").Parse(templates["file.tmpl"] + templates["group.tmpl"]))
}

// Options configures generation.
type Options struct {
	// Package of the generated file. Defaults to the package declared in the
	// table file, then to the name of the directory holding it.
	Package string
	// Source is recorded in the generated header.
	Source string
}

type fileData struct {
	Source    string
	Package   string
	Imports   []string
	Constants []constant
	Groups    []groupData
}

type constant struct {
	Name  string
	Value string
}

type fieldData struct {
	Name   string
	GoName string
	GoType string
}

type entryData struct {
	Method  string
	Name    string
	Literal string
}

type groupData struct {
	Group      string
	TypeName   string
	VarName    string
	TestName   string
	VerifyFunc string
	Fields     []fieldData
	Fixtures   []string
	Entries    []entryData
}

// GenerateFile renders a parsed table file.
func GenerateFile(file *fixtures.File, opts Options) ([]byte, error) {
	if opts.Source == "" {
		opts.Source = filepath.Base(file.Path)
	}
	if opts.Package == "" {
		for _, d := range file.Definitions {
			if d.Package != "" {
				opts.Package = d.Package
				break
			}
		}
	}
	if opts.Package == "" {
		dir, _ := filepath.Abs(filepath.Dir(file.Path))
		opts.Package = packageName(filepath.Base(dir))
	}

	var buf bytes.Buffer
	if err := Generate(&buf, file.Definitions, opts); err != nil {
		return buf.Bytes(), err
	}
	return buf.Bytes(), nil
}

// Generate writes one Go test file declaring a table, a case record and a
// test function per definition. The output is deterministic.
func Generate(output io.Writer, defs []fixtures.Definition, opts Options) error {
	data := fileData{
		Source:  opts.Source,
		Package: opts.Package,
	}
	if data.Package == "" {
		data.Package = "main"
	}

	imports := map[string]bool{"testing": true, tablePackage: true}
	constants := map[string]constant{}
	seen := map[string]bool{}
	// generated identifier -> group declaring it
	declared := map[string]string{}

	for _, def := range defs {
		if seen[def.Group] {
			return &table.CaseError{Group: def.Group, Err: ErrDuplicateGroup}
		}
		seen[def.Group] = true

		group, err := buildGroup(def, imports)
		if err != nil {
			return err
		}
		for _, name := range []string{group.TypeName, group.VarName, group.TestName} {
			if other, ok := declared[name]; ok {
				return &table.CaseError{Group: def.Group, Err: fmt.Errorf("%w: %s is also declared by group %q", ErrNameCollision, name, other)}
			}
			declared[name] = def.Group
		}
		for _, name := range def.FixtureNames() {
			value, err := literal(def.Fixtures[name])
			if err != nil {
				return &table.CaseError{Group: def.Group, Err: fmt.Errorf("fixture %q: %w", name, err)}
			}
			if c, ok := constants[name]; ok && c.Value != value {
				return &table.CaseError{Group: def.Group, Err: fmt.Errorf("%w: %s", ErrFixtureConflict, name)}
			}
			constants[name] = constant{Name: name, Value: value}
		}
		data.Groups = append(data.Groups, group)
	}

	for name := range constants {
		if other, ok := declared[name]; ok {
			return &table.CaseError{Group: other, Err: fmt.Errorf("%w: fixture %s", ErrNameCollision, name)}
		}
	}

	data.Imports = lo.Keys(imports)
	sort.Strings(data.Imports)
	data.Constants = lo.Values(constants)
	sort.Slice(data.Constants, func(i, j int) bool { return data.Constants[i].Name < data.Constants[j].Name })

	var src bytes.Buffer
	if err := fileTemplate.Execute(&src, data); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	formatted, err := format.Source(src.Bytes())
	if err != nil {
		// Write the unformatted source so the user can see what was generated
		_, _ = output.Write(src.Bytes())

		var lineNum, colNum int
		_, _ = fmt.Sscanf(err.Error(), "%d:%d:", &lineNum, &colNum)
		return &FormatError{
			OriginalError: err,
			Source:        src.String(),
			LineNum:       lineNum,
			Column:        colNum,
		}
	}

	logger.V(3).Infof("generated %d groups for %s", len(data.Groups), opts.Source)
	_, err = output.Write(formatted)
	return err
}

func buildGroup(def fixtures.Definition, imports map[string]bool) (groupData, error) {
	tb, err := fixtures.Rows(def)
	if err != nil {
		return groupData{}, err
	}
	fields, err := def.Fields()
	if err != nil {
		return groupData{}, err
	}

	exported := exportedName(def.Group)
	unexported := unexportedName(def.Group)
	group := groupData{
		Group:      def.Group,
		TypeName:   unexported + "Case",
		VarName:    unexported + "Table",
		TestName:   "Test" + exported,
		VerifyFunc: def.VerifyFunc,
		Fixtures:   def.FixtureNames(),
	}
	if group.VerifyFunc == "" {
		group.VerifyFunc = "verify" + exported
	}
	if !isIdentifier(group.VerifyFunc) {
		return groupData{}, &table.CaseError{Group: def.Group, Err: fmt.Errorf("%w: %q", ErrInvalidVerify, group.VerifyFunc)}
	}

	for _, f := range fields {
		ft, _ := fixtures.Get(f.Type)
		goType := ft.GoType()
		if strings.HasPrefix(goType, "time.") {
			imports["time"] = true
		}
		group.Fields = append(group.Fields, fieldData{Name: f.Name, GoName: exportedName(f.Name), GoType: goType})
	}

	for _, e := range tb.Entries {
		parts := make([]string, 0, len(group.Fields))
		for _, f := range group.Fields {
			v, err := literal(e.Value[f.Name])
			if err != nil {
				return groupData{}, &table.CaseError{Group: def.Group, Case: e.Name, Err: fmt.Errorf("field %q: %w", f.Name, err)}
			}
			parts = append(parts, f.GoName+": "+v)
		}
		method := "Case"
		if e.Skip {
			method = "Skip"
		}
		group.Entries = append(group.Entries, entryData{
			Method:  method,
			Name:    e.Name,
			Literal: group.TypeName + "{" + strings.Join(parts, ", ") + "}",
		})
	}
	return group, nil
}

