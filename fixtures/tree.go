package fixtures

import (
	"fmt"
	"strconv"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/flanksource/clicky/task"

	"github.com/glebziz/rtest/unit"
)

// NodeType distinguishes the levels of the File → Group → Case tree.
type NodeType int

const (
	FileNode NodeType = iota
	GroupNode
	CaseNode
)

func (nt NodeType) String() string {
	switch nt {
	case FileNode:
		return "file"
	case GroupNode:
		return "group"
	case CaseNode:
		return "case"
	default:
		return "unknown"
	}
}

func (nt NodeType) Pretty() api.Text {
	return clicky.Text(nt.String(), "text-gray-500")
}

// Node is one node of the tree of expanded units.
type Node struct {
	Name     string       `json:"name"`
	Type     NodeType     `json:"type"`
	Skip     bool         `json:"skip,omitempty"`
	Children []*Node      `json:"children,omitempty"`
	Parent   *Node        `json:"-"`
	Result   *unit.Result `json:"result,omitempty"` // Only populated after execution
	Stats    *Stats       `json:"stats,omitempty"`
	// Error is set on group nodes whose table failed to load.
	Error string `json:"error,omitempty"`
}

// AddChild adds a child node to this node
func (n *Node) AddChild(child *Node) *Node {
	child.Parent = n
	n.Children = append(n.Children, child)
	return child
}

// Walk visits n and all its descendants depth first.
func (n *Node) Walk(visitor func(*Node)) {
	visitor(n)
	for _, child := range n.Children {
		child.Walk(visitor)
	}
}

// Find returns the direct child called name.
func (n *Node) Find(name string) *Node {
	for _, child := range n.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func (n Node) GetStats() Stats {
	s := Stats{}
	if n.Type == CaseNode {
		s = s.Add(n.Result, n.Skip)
	}
	if n.Error != "" {
		s = s.Merge(Stats{Total: 1, Error: 1})
	}
	for _, child := range n.Children {
		s = s.Merge(child.GetStats())
	}
	return s
}

// UpdateStats sets Stats on every file and group node.
func (n *Node) UpdateStats() {
	n.Walk(func(node *Node) {
		if node.Type != CaseNode {
			stats := node.GetStats()
			node.Stats = &stats
		}
	})
}

func (n Node) Pretty() api.Text {
	if n.Result != nil {
		return n.Result.State.Pretty().Append(" ").Append(n.Name).
			Append(fmt.Sprintf(" (%s)", unit.FormatElapsed(n.Result.Duration)), "text-muted").
			Add(messages(n.Result))
	}

	var t api.Text
	switch n.Type {
	case FileNode:
		t = clicky.Text("📁 "+n.Name, "text-blue-600 font-bold")
	case GroupNode:
		t = clicky.Text("📂 "+n.Name, "text-blue-500")
	default:
		if n.Skip {
			t = unit.Skipped.Pretty().Append(" ").Append(n.Name)
		} else {
			t = clicky.Text("📄 " + n.Name)
		}
	}
	if n.Stats != nil && n.Stats.Total > 0 {
		t = t.Append(" (").Add(n.Stats.Pretty()).Append(")")
	}
	if n.Error != "" {
		t = t.Space().Append(n.Error, "text-red-600")
	}
	return t
}

func messages(r *unit.Result) api.Text {
	t := api.Text{}
	if r.Panic != nil {
		t = t.Space().Append(fmt.Sprintf("panic: %v", r.Panic), "text-red-600")
	}
	for _, msg := range r.Messages {
		t = t.NewLine().Append("    "+msg, "text-gray-500")
	}
	return t
}

func (n Node) GetChildren() []api.TreeNode {
	if len(n.Children) == 0 {
		return nil
	}
	nodes := make([]api.TreeNode, len(n.Children))
	for i, child := range n.Children {
		nodes[i] = child
	}
	return nodes
}

// Stats provides summary statistics for a run.
type Stats struct {
	Total   int `json:"total,omitempty"`
	Passed  int `json:"passed,omitempty"`
	Failed  int `json:"failed,omitempty"`
	Skipped int `json:"skipped,omitempty"`
	Error   int `json:"error,omitempty"`
}

func (s Stats) Merge(o Stats) Stats {
	return Stats{
		Total:   s.Total + o.Total,
		Passed:  s.Passed + o.Passed,
		Failed:  s.Failed + o.Failed,
		Skipped: s.Skipped + o.Skipped,
		Error:   s.Error + o.Error,
	}
}

// Add counts one case. A case without a result counts as skipped when it is
// marked skip, and is otherwise not counted.
func (s Stats) Add(result *unit.Result, skip bool) Stats {
	if result == nil {
		if skip {
			s.Total++
			s.Skipped++
		}
		return s
	}
	s.Total++
	switch result.State.Status() {
	case task.StatusPASS:
		s.Passed++
	case task.StatusFAIL:
		s.Failed++
	case task.StatusSKIP:
		s.Skipped++
	default:
		s.Error++
	}
	return s
}

func (s Stats) IsOK() bool {
	return s.Failed == 0 && s.Error == 0
}

func (s Stats) HasFailures() bool {
	return s.Failed > 0 || s.Error > 0
}

// Pretty prints status, with green for passed red for failed and yellow for skipped
func (s Stats) Pretty() api.Text {
	t := api.Text{}
	if s.Passed > 0 {
		t = t.Append(strconv.Itoa(s.Passed), "text-green-500")
	}
	if s.Failed > 0 {
		if !t.IsEmpty() {
			t = t.Append("/", "text-gray-500")
		}
		t = t.Append(strconv.Itoa(s.Failed), "text-red-500")
	}
	if s.Skipped > 0 {
		t = t.Append(fmt.Sprintf(" %d skipped", s.Skipped), "text-yellow-500")
	}
	if s.Error > 0 {
		t = t.Append(fmt.Sprintf(" %d errors", s.Error), "text-red-500")
	}
	return t
}

func (s Stats) String() string {
	if s.Total == 0 {
		return "-"
	}
	str := fmt.Sprintf("%d/%d", s.Passed, s.Failed+s.Passed)
	if s.Skipped > 0 {
		str += fmt.Sprintf(" %d skipped", s.Skipped)
	}
	if s.Error > 0 {
		str += fmt.Sprintf(" %d error", s.Error)
	}
	return str
}

func (s Stats) Health() task.Health {
	if s.Failed+s.Error > 0 {
		return task.HealthError
	}
	if s.Total == 0 || s.Skipped > 0 {
		return task.HealthWarning
	}
	return task.HealthOK
}
