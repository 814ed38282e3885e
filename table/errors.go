package table

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNoEntries     = errors.New("table has no cases")
	ErrDuplicateCase = errors.New("duplicate case name")
	ErrInvalidName   = errors.New("invalid name")
	ErrNoVerify      = errors.New("no verification routine")
)

// CaseError is a structural error of a table, naming the group and, when it
// concerns a single entry, the case.
type CaseError struct {
	Group string
	Case  string
	Err   error
}

func (e *CaseError) Error() string {
	if e.Case == "" {
		return fmt.Sprintf("group %s: %v", displayGroup(e.Group), e.Err)
	}
	return fmt.Sprintf("group %s: case %q: %v", displayGroup(e.Group), e.Case, e.Err)
}

func (e *CaseError) Unwrap() error {
	return e.Err
}

func displayGroup(group string) string {
	if group == "" {
		return "(ungrouped)"
	}
	return fmt.Sprintf("%q", group)
}

// names may not contain '/' (the group separator) or whitespace
var validName = regexp.MustCompile(`^[\pL\pN_.\-]+$`)

// ValidateName checks a group or case name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if !validName.MatchString(name) {
		if strings.Contains(name, "/") {
			return fmt.Errorf("%w: %q contains '/'", ErrInvalidName, name)
		}
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Validate reports the first structural error of the table: an invalid group
// name, no entries, an invalid or duplicate case name, or an unnamed fixture.
func (tb *Table[C]) Validate() error {
	if tb.Group != "" {
		if err := ValidateName(tb.Group); err != nil {
			return &CaseError{Group: tb.Group, Err: err}
		}
	}
	for name := range tb.Fixtures {
		if name == "" {
			return &CaseError{Group: tb.Group, Err: fmt.Errorf("%w: unnamed fixture", ErrInvalidName)}
		}
	}
	if len(tb.Entries) == 0 {
		return &CaseError{Group: tb.Group, Err: ErrNoEntries}
	}

	seen := make(map[string]struct{}, len(tb.Entries))
	for _, e := range tb.Entries {
		if err := ValidateName(e.Name); err != nil {
			return &CaseError{Group: tb.Group, Case: e.Name, Err: err}
		}
		if _, ok := seen[e.Name]; ok {
			return &CaseError{Group: tb.Group, Case: e.Name, Err: ErrDuplicateCase}
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}
