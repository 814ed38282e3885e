package unit

import (
	"github.com/flanksource/commons/logger"
)

// Synthesizer registers units with a host, instrumenting the active ones.
type Synthesizer struct {
	// Trace receives the RUN/PASS/FAIL lines, defaults to Stdout.
	Trace *Trace
}

// Register registers u with the default synthesizer.
func Register(host Host, u Unit) bool {
	return Synthesizer{}.Register(host, u)
}

// Register registers u with host under its bare name. The qualified name is
// only used for the trace, grouping is up to the host the unit is registered
// with.
//
// A skipped unit is registered as a no-op that reports itself as skipped, its
// body is never invoked.
func (s Synthesizer) Register(host Host, u Unit) bool {
	name := u.QualifiedName()
	if u.Skip {
		logger.V(4).Infof("registering %s as skipped", name)
		return host.Run(u.Name, func(t T) {
			t.Skip(NotRun)
		})
	}

	logger.V(4).Infof("registering %s", name)
	tr := s.trace()
	return host.Run(u.Name, func(t T) {
		Instrument(tr, name, t, u.Body)
	})
}

// RegisterAll registers units in order and reports whether all of them
// succeeded.
func (s Synthesizer) RegisterAll(host Host, units []Unit) bool {
	ok := true
	for _, u := range units {
		if !s.Register(host, u) {
			ok = false
		}
	}
	return ok
}

func (s Synthesizer) trace() *Trace {
	if s.Trace == nil {
		return Stdout
	}
	return s.Trace
}
