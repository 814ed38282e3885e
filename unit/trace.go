package unit

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Line prefixes of the trace stream.
const (
	RunPrefix  = "=== RUN  "
	PassPrefix = "--- PASS:\t"
	FailPrefix = "--- FAIL:\t"
	SkipPrefix = "--- SKIP:\t"
)

// Trace writes the human readable RUN/PASS/FAIL lines of instrumented units.
// Each line is written with a single Write call so concurrent units may
// interleave lines but never split one.
type Trace struct {
	w io.Writer
}

// Stdout is the trace used when none is configured.
var Stdout = NewTrace(os.Stdout)

// Discard drops every line.
var Discard = NewTrace(io.Discard)

func NewTrace(w io.Writer) *Trace {
	return &Trace{w: w}
}

func (tr *Trace) Run(name string) {
	tr.line(RunPrefix + name)
}

func (tr *Trace) Pass(name string, elapsed time.Duration) {
	tr.line(fmt.Sprintf("%s%s (%s)", PassPrefix, name, FormatElapsed(elapsed)))
}

func (tr *Trace) Fail(name string, elapsed time.Duration) {
	tr.line(fmt.Sprintf("%s%s (%s)", FailPrefix, name, FormatElapsed(elapsed)))
}

func (tr *Trace) Skip(name string, elapsed time.Duration) {
	tr.line(fmt.Sprintf("%s%s (%s)", SkipPrefix, name, FormatElapsed(elapsed)))
}

func (tr *Trace) line(s string) {
	if tr == nil || tr.w == nil {
		return
	}
	_, _ = io.WriteString(tr.w, s+"\n")
}

// FormatElapsed renders d as "<seconds>.<millis>" with the milliseconds
// zero-padded to three digits.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	millis := int64(d % time.Second / time.Millisecond)
	return fmt.Sprintf("%d.%03d", secs, millis)
}
