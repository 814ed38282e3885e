package fixtures

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/task"
	flanksourceContext "github.com/flanksource/commons/context"
	"github.com/flanksource/commons/logger"

	"github.com/glebziz/rtest/table"
	"github.com/glebziz/rtest/unit"
)

// ErrFailed is returned by Runner.Run when a case failed or a table could not
// be loaded.
var ErrFailed = errors.New("table tests failed")

// RunnerOptions configures the table file runner
type RunnerOptions struct {
	Paths   []string      // Table file paths/patterns
	Filter  string        // Filter cases by qualified name (glob)
	WorkDir string        // Directory relative patterns are resolved against
	Trace   io.Writer     // Receives the RUN/PASS/FAIL lines, defaults to stdout
	Timeout time.Duration // Per file
}

// Runner loads table files and runs their cases with the CEL verifier, one
// task per file.
type Runner struct {
	options RunnerOptions
	files   []*File
}

type groupRun struct {
	def     Definition
	table   *table.Table[Row]
	results []unit.Result
	trace   []byte
	err     error
}

type fileRun struct {
	path   string
	groups []groupRun
}

// NewRunner creates a new table file runner
func NewRunner(opts RunnerOptions) *Runner {
	if opts.Trace == nil {
		opts.Trace = os.Stdout
	}
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Minute
	}
	return &Runner{options: opts}
}

// Load parses the table files matching the configured paths.
func (r *Runner) Load() error {
	files, err := ParseFiles(r.options.WorkDir, r.options.Paths...)
	if err != nil {
		return err
	}
	r.files = files
	logger.Infof("Loaded %d table files", len(files))
	return nil
}

func (r *Runner) Files() []*File {
	return r.files
}

// table builds the filtered table of def.
func (r *Runner) table(def Definition) (*table.Table[Row], error) {
	tb, err := Rows(def)
	if err != nil {
		return nil, err
	}
	if r.options.Filter == "" {
		return tb, nil
	}
	return tb.Filter(func(e table.Entry[Row]) bool {
		match, err := doublestar.Match(r.options.Filter, unit.QualifiedName(def.Group, e.Name))
		if err != nil {
			logger.Warnf("Invalid filter pattern '%s': %v", r.options.Filter, err)
			return false
		}
		return match
	}), nil
}

// Tree returns the File → Group → Case tree of the loaded files without
// running anything.
func (r *Runner) Tree() *Node {
	root := &Node{Name: "Tables"}
	for _, f := range r.files {
		fileNode := root.AddChild(&Node{Name: f.Path, Type: FileNode})
		for _, def := range f.Definitions {
			groupNode := &Node{Name: def.Group, Type: GroupNode}
			tb, err := r.table(def)
			if err != nil {
				groupNode.Error = err.Error()
				fileNode.AddChild(groupNode)
				continue
			}
			if len(tb.Entries) == 0 {
				continue
			}
			for _, e := range tb.Entries {
				groupNode.AddChild(&Node{Name: e.Name, Type: CaseNode, Skip: e.Skip})
			}
			fileNode.AddChild(groupNode)
		}
	}
	root.UpdateStats()
	return root
}

// Run executes every loaded group and returns the tree with results. The
// trace of each file is written once the file completes, in file order.
func (r *Runner) Run() (*Node, error) {
	if r.files == nil {
		if err := r.Load(); err != nil {
			return nil, err
		}
	}

	group := task.StartGroup[fileRun]("Table Tests")
	tasks := make(map[task.TypedTask[fileRun]]int, len(r.files))
	for i, f := range r.files {
		typedTask := group.Add(f.Path, func(ctx flanksourceContext.Context, t *task.Task) (fileRun, error) {
			return r.runFile(ctx, f), nil
		}, clicky.WithTaskTimeout(r.options.Timeout))
		tasks[typedTask] = i
	}

	groupResult := group.WaitFor()
	if groupResult.Error != nil {
		logger.Warnf("Some table files failed: %v", groupResult.Error)
	}
	results, err := group.GetResults()
	if err != nil {
		return nil, fmt.Errorf("failed to get table results: %w", err)
	}

	runs := make([]*fileRun, len(r.files))
	for typedTask, result := range results {
		if i, ok := tasks[typedTask]; ok {
			run := result
			runs[i] = &run
		} else {
			logger.Warnf("No table file found for task: %s", typedTask.Name())
		}
	}
	clicky.WaitForGlobalCompletion()

	root := &Node{Name: "Tables"}
	for i, run := range runs {
		if run == nil {
			root.AddChild(&Node{Name: r.files[i].Path, Type: FileNode, Error: "did not complete"})
			continue
		}
		for _, g := range run.groups {
			_, _ = r.options.Trace.Write(g.trace)
		}
		root.AddChild(run.tree())
	}
	root.UpdateStats()

	if root.Stats.HasFailures() {
		return root, fmt.Errorf("%w: %s", ErrFailed, root.Stats)
	}
	return root, nil
}

func (r *Runner) runFile(ctx flanksourceContext.Context, f *File) fileRun {
	run := fileRun{path: f.Path}
	for _, def := range f.Definitions {
		g := groupRun{def: def}
		g.table, g.err = r.table(def)
		if g.err == nil && len(g.table.Entries) == 0 {
			ctx.Logger.V(3).Infof("%s: no cases match %s", def.Group, r.options.Filter)
			continue
		}
		var verifier *CELVerifier
		if g.err == nil {
			verifier, g.err = NewCELVerifier(def)
		}
		if g.err == nil {
			var buf bytes.Buffer
			session := unit.NewSession()
			g.err = g.table.WithTrace(unit.NewTrace(&buf)).RunOn(session, verifier.Verify)
			g.results = session.Units()
			g.trace = buf.Bytes()
		}
		if g.err != nil {
			ctx.Logger.V(2).Infof("%s: %v", def.Group, g.err)
		}
		run.groups = append(run.groups, g)
	}
	return run
}

func (run fileRun) tree() *Node {
	fileNode := &Node{Name: run.path, Type: FileNode}
	for _, g := range run.groups {
		groupNode := fileNode.AddChild(&Node{Name: g.def.Group, Type: GroupNode})
		if g.err != nil {
			groupNode.Error = g.err.Error()
			continue
		}
		prefix := g.def.Group + "/"
		for i := range g.results {
			result := g.results[i]
			groupNode.AddChild(&Node{
				Name:   strings.TrimPrefix(result.Name, prefix),
				Type:   CaseNode,
				Skip:   result.State == unit.Skipped,
				Result: &result,
			})
		}
	}
	return fileNode
}
