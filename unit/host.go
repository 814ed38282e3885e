package unit

import (
	"testing"
)

// Testing adapts Go's test runner. Units become subtests of t.
func Testing(t *testing.T) Host {
	return testingHost{t: t}
}

type testingHost struct {
	t *testing.T
}

func (h testingHost) Run(name string, fn func(t T)) bool {
	return h.t.Run(name, func(t *testing.T) {
		fn(t)
	})
}

// Within returns the host that registers children of the running unit t.
func Within(t T) (Host, bool) {
	switch v := t.(type) {
	case *testing.T:
		return Testing(v), true
	case Host:
		return v, true
	}
	return nil, false
}
