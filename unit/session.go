package unit

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
)

// Result is the outcome of one invocation recorded by a Session.
type Result struct {
	Name     string        `json:"name"`
	State    State         `json:"state"`
	Duration time.Duration `json:"duration,omitempty"`
	Messages []string      `json:"messages,omitempty"`
	// Panic holds the recovered value when the invocation panicked.
	Panic any `json:"panic,omitempty"`
	// Parent is true when other units were registered beneath this one.
	Parent bool `json:"parent,omitempty"`
}

func (r Result) Pretty() api.Text {
	t := r.State.Pretty().Append(" ").Append(r.Name, "bold")
	if r.Duration > 0 {
		t = t.Append(fmt.Sprintf(" (%s)", FormatElapsed(r.Duration)), "text-muted")
	}
	if r.Panic != nil {
		t = t.Space().Append(fmt.Sprintf("panic: %v", r.Panic), "text-red-600")
	}
	for _, msg := range r.Messages {
		t = t.NewLine().Append("    "+msg, "text-gray-500")
	}
	return t
}

// Session is an in-process Host. It runs every unit in its own goroutine so
// FailNow and SkipNow can stop a unit the way they do under go test, and it
// records instead of crashing when a unit panics.
type Session struct {
	mu      sync.Mutex
	results []*Result
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Run(name string, fn func(t T)) bool {
	return s.run(nil, name, fn)
}

func (s *Session) run(parent *probe, name string, fn func(t T)) bool {
	if parent != nil {
		name = parent.name + "/" + name
	}
	result := &Result{Name: name, State: Running}
	s.mu.Lock()
	s.results = append(s.results, result)
	s.mu.Unlock()

	p := &probe{name: name, session: s}
	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				p.mu.Lock()
				p.panic = r
				p.failed = true
				p.mu.Unlock()
			}
		}()
		fn(p)
		p.mu.Lock()
		p.returned = true
		p.mu.Unlock()
	}()
	<-done

	p.mu.Lock()
	defer p.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	result.Duration = time.Since(start)
	result.Messages = p.messages
	result.Panic = p.panic
	result.Parent = p.children > 0
	switch {
	case p.failed:
		result.State = Failed
	case p.skipped:
		result.State = Skipped
	case !p.returned:
		p.failed = true
		result.State = Failed
		result.Messages = append(result.Messages, "unit exited without returning")
	default:
		result.State = Passed
	}
	if parent != nil && p.failed {
		parent.Fail()
	}
	return !p.failed
}

// Results returns the recorded results in registration order.
func (s *Session) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	for i, r := range s.results {
		out[i] = *r
	}
	return out
}

// Result returns the result recorded under the full name.
func (s *Session) Result(name string) (Result, bool) {
	for _, r := range s.Results() {
		if r.Name == name {
			return r, true
		}
	}
	return Result{}, false
}

// Units returns the results of leaf units, leaving out the groups they were
// registered under.
func (s *Session) Units() []Result {
	var units []Result
	for _, r := range s.Results() {
		if !r.Parent {
			units = append(units, r)
		}
	}
	return units
}

// Failed reports whether any unit failed.
func (s *Session) Failed() bool {
	for _, r := range s.Results() {
		if r.State == Failed {
			return true
		}
	}
	return false
}

func (s *Session) Pretty() api.Text {
	t := clicky.Text("")
	for i, r := range s.Units() {
		if i > 0 {
			t = t.NewLine()
		}
		t = t.Add(r.Pretty())
	}
	return t
}

// probe is the T handed to units run by a Session.
type probe struct {
	mu       sync.Mutex
	name     string
	session  *Session
	failed   bool
	skipped  bool
	returned bool
	children int
	panic    any
	messages []string
}

var _ T = (*probe)(nil)
var _ Host = (*probe)(nil)

func (p *probe) Helper() {}

func (p *probe) Name() string {
	return p.name
}

func (p *probe) log(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, strings.TrimSuffix(msg, "\n"))
}

func (p *probe) Logf(format string, args ...any) {
	p.log(fmt.Sprintf(format, args...))
}

func (p *probe) Errorf(format string, args ...any) {
	p.log(fmt.Sprintf(format, args...))
	p.Fail()
}

func (p *probe) Fatalf(format string, args ...any) {
	p.log(fmt.Sprintf(format, args...))
	p.FailNow()
}

func (p *probe) Fail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = true
}

func (p *probe) FailNow() {
	p.Fail()
	runtime.Goexit()
}

func (p *probe) Failed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failed
}

func (p *probe) Skip(args ...any) {
	p.log(fmt.Sprintln(args...))
	p.SkipNow()
}

func (p *probe) SkipNow() {
	p.mu.Lock()
	p.skipped = true
	p.mu.Unlock()
	runtime.Goexit()
}

func (p *probe) Skipped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.skipped
}

// Run registers a child unit beneath p.
func (p *probe) Run(name string, fn func(t T)) bool {
	p.mu.Lock()
	p.children++
	p.mu.Unlock()
	return p.session.run(p, name, fn)
}
