// Package unit synthesizes individually named test units and registers them
// with a host test runner. Every active unit is wrapped so that its start,
// outcome and elapsed time are written to a Trace before any failure is handed
// back to the host unchanged.
package unit

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/task"
)

// NotRun is the skip reason reported for units registered as skipped.
const NotRun = "not run"

// T is the part of testing.TB a unit body works with. *testing.T satisfies it,
// as does the probe handed out by Session.
type T interface {
	Helper()
	Name() string
	Logf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Fail()
	FailNow()
	Failed() bool
	Skip(args ...any)
	SkipNow()
	Skipped() bool
}

// Host discovers and invokes units by name. It owns the authoritative
// pass/fail/skip accounting.
type Host interface {
	Run(name string, fn func(t T)) bool
}

// Body is the zero-argument routine of a unit, bound to the host's T.
type Body func(t T)

// Unit is one generated, independently invocable test.
type Unit struct {
	Name  string
	Group string
	Skip  bool
	Body  Body
}

// QualifiedName returns "<group>/<name>", or the bare name when the unit is
// ungrouped.
func (u Unit) QualifiedName() string {
	return QualifiedName(u.Group, u.Name)
}

func QualifiedName(group, name string) string {
	if group == "" {
		return name
	}
	return group + "/" + name
}

func (u Unit) String() string {
	if u.Skip {
		return fmt.Sprintf("%s (skip)", u.QualifiedName())
	}
	return u.QualifiedName()
}

func (u Unit) Pretty() api.Text {
	if u.Skip {
		return clicky.Text(u.QualifiedName(), "text-yellow-500").Append(" skip", "text-gray-500")
	}
	return clicky.Text(u.QualifiedName(), "text-blue-600")
}

// State is the lifecycle of a single unit invocation.
type State int

const (
	Pending State = iota
	Running
	Passed
	Failed
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Passed:
		return "pass"
	case Failed:
		return "fail"
	case Skipped:
		return "skip"
	default:
		return "unknown"
	}
}

// Done reports whether s is terminal.
func (s State) Done() bool {
	return s == Passed || s == Failed || s == Skipped
}

// Status maps terminal states onto clicky task statuses. Units that never
// finished are reported as errors.
func (s State) Status() task.Status {
	switch s {
	case Passed:
		return task.StatusPASS
	case Failed:
		return task.StatusFAIL
	case Skipped:
		return task.StatusSKIP
	default:
		return task.StatusERR
	}
}

func (s State) Pretty() api.Text {
	return s.Status().Pretty()
}
