// Package report reads back the RUN/PASS/FAIL trace written by instrumented
// units.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/task"
	"github.com/samber/lo"

	"github.com/glebziz/rtest/unit"
)

// Incomplete is the status of a unit that started but never reported.
var Incomplete = task.StatusERR

// Result is one unit read from a trace.
type Result struct {
	Name     string        `json:"name"`
	Group    string        `json:"group,omitempty"`
	Case     string        `json:"case"`
	Status   task.Status   `json:"status"`
	Duration time.Duration `json:"duration"`
	Output   []string      `json:"output,omitempty"`
}

func (r Result) Incomplete() bool {
	return r.Status == Incomplete
}

func (r Result) Pretty() api.Text {
	t := r.Status.Pretty().Append(" ").Append(r.Name, "bold")
	if r.Incomplete() {
		return t.Append(" (incomplete)", "text-red-600")
	}
	t = t.Append(fmt.Sprintf(" (%s)", unit.FormatElapsed(r.Duration)), "text-muted")
	if r.Status == task.StatusFAIL && len(r.Output) > 0 {
		t = t.NewLine().Append(strings.Join(r.Output, "\n"), "text-red-500 max-lines-10")
	}
	return t
}

func (r Result) GetChildren() []api.TreeNode {
	return nil
}

// Report is the ordered set of units read from a trace.
type Report struct {
	Results []Result `json:"results"`
}

// Summary counts results by status.
type Summary struct {
	Total      int           `json:"total"`
	Passed     int           `json:"passed"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Incomplete int           `json:"incomplete"`
	Duration   time.Duration `json:"duration"`
}

func (r Report) Summary() Summary {
	var s Summary
	for _, res := range r.Results {
		s.Total++
		s.Duration += res.Duration
		switch res.Status {
		case task.StatusPASS:
			s.Passed++
		case task.StatusFAIL:
			s.Failed++
		case task.StatusSKIP:
			s.Skipped++
		default:
			s.Incomplete++
		}
	}
	return s
}

// Failed returns the failed and incomplete results.
func (r Report) Failed() []Result {
	return lo.Filter(r.Results, func(res Result, _ int) bool {
		return res.Status == task.StatusFAIL || res.Incomplete()
	})
}

// Groups returns the distinct group names in order of appearance.
func (r Report) Groups() []string {
	return lo.Uniq(lo.Map(r.Results, func(res Result, _ int) string { return res.Group }))
}

func (r Report) Pretty() api.Text {
	return r.Summary().Pretty()
}

// GetChildren groups results under their group, ungrouped results are listed
// directly.
func (r Report) GetChildren() []api.TreeNode {
	var children []api.TreeNode
	for _, g := range r.Groups() {
		results := lo.Filter(r.Results, func(res Result, _ int) bool { return res.Group == g })
		if g == "" {
			for _, res := range results {
				children = append(children, res)
			}
			continue
		}
		children = append(children, group{name: g, results: results})
	}
	return children
}

type group struct {
	name    string
	results []Result
}

func (g group) Pretty() api.Text {
	rep := Report{Results: g.results}
	return clicky.Text(g.name, "bold").Append(" (").Add(rep.Summary().Pretty()).Append(")")
}

func (g group) GetChildren() []api.TreeNode {
	return lo.Map(g.results, func(res Result, _ int) api.TreeNode { return res })
}

func (s Summary) OK() bool {
	return s.Failed == 0 && s.Incomplete == 0
}

func (s Summary) Health() task.Health {
	switch {
	case !s.OK():
		return task.HealthError
	case s.Skipped > 0:
		return task.HealthWarning
	default:
		return task.HealthOK
	}
}

func (s Summary) String() string {
	if s.Total == 0 {
		return "no units"
	}
	out := fmt.Sprintf("%d/%d passed", s.Passed, s.Total)
	if s.Failed > 0 {
		out += fmt.Sprintf(", %d failed", s.Failed)
	}
	if s.Skipped > 0 {
		out += fmt.Sprintf(", %d skipped", s.Skipped)
	}
	if s.Incomplete > 0 {
		out += fmt.Sprintf(", %d incomplete", s.Incomplete)
	}
	return out + fmt.Sprintf(" in %s", unit.FormatElapsed(s.Duration))
}

func (s Summary) Pretty() api.Text {
	if s.Total == 0 {
		return clicky.Text("no units", "text-muted")
	}
	t := clicky.Text(strconv.Itoa(s.Passed), "text-green-500").Append("/" + strconv.Itoa(s.Total) + " passed")
	if s.Failed > 0 {
		t = t.Append(", ").Append(fmt.Sprintf("%d failed", s.Failed), "text-red-500")
	}
	if s.Skipped > 0 {
		t = t.Append(", ").Append(fmt.Sprintf("%d skipped", s.Skipped), "text-yellow-500")
	}
	if s.Incomplete > 0 {
		t = t.Append(", ").Append(fmt.Sprintf("%d incomplete", s.Incomplete), "text-red-600")
	}
	return t.Append(fmt.Sprintf(" in %s", unit.FormatElapsed(s.Duration)), "text-muted")
}
