package unit

import (
	"time"

	"github.com/flanksource/commons/logger"
)

// Instrument invokes body under t and traces it as name.
//
// A panic raised by body is recovered only long enough to write the FAIL line
// and is then raised again with the same value. A body that stops through
// t.FailNow (runtime.Goexit) keeps unwinding after the FAIL line is written.
// Failures recorded with t.Errorf stay on t. The host therefore sees exactly
// the failure it would have seen without instrumentation.
func Instrument(tr *Trace, name string, t T, body Body) (state State) {
	tr.Run(name)
	state = Running
	returned := false
	start := time.Now()

	defer func() {
		elapsed := time.Since(start)
		if r := recover(); r != nil {
			tr.Fail(name, elapsed)
			logger.V(3).Infof("%s panicked after %s: %v", name, elapsed, r)
			panic(r)
		}
		switch {
		case t.Failed():
			state = Failed
			tr.Fail(name, elapsed)
		case t.Skipped():
			state = Skipped
			tr.Skip(name, elapsed)
		case !returned:
			// runtime.Goexit without a recorded failure or skip
			state = Failed
			tr.Fail(name, elapsed)
		default:
			state = Passed
			tr.Pass(name, elapsed)
		}
	}()

	body(t)
	returned = true
	return state
}
