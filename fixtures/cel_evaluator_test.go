package fixtures

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/glebziz/rtest/table"
	"github.com/glebziz/rtest/unit"
)

var _ = Describe("CEL verifier", func() {
	It("runs the string_length table", func() {
		def := stringLength()
		verifier, err := NewCELVerifier(def)
		Expect(err).NotTo(HaveOccurred())
		tb, err := Rows(def)
		Expect(err).NotTo(HaveOccurred())

		session := unit.NewSession()
		Expect(tb.WithTrace(unit.Discard).RunOn(session, verifier.Verify)).To(Succeed())

		states := map[string]unit.State{}
		for _, r := range session.Units() {
			states[r.Name] = r.State
		}
		Expect(states).To(Equal(map[string]unit.State{
			"string_length/empty_string": unit.Passed,
			"string_length/null_string":  unit.Skipped,
			"string_length/hello_string": unit.Passed,
		}))
	})

	DescribeTable("evaluates rows",
		func(def Definition, row Row, expected bool) {
			verifier, err := NewCELVerifier(def)
			Expect(err).NotTo(HaveOccurred())
			ok, err := verifier.Eval(row)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(Equal(expected))
		},
		Entry("true", Definition{Record: []string{"input string", "expected int"}, Verify: "size(input) == expected"},
			Row{"input": "abc", "expected": int64(3)}, true),
		Entry("false", Definition{Record: []string{"input string", "expected int"}, Verify: "size(input) == expected"},
			Row{"input": "abc", "expected": int64(4)}, false),
		Entry("fixtures as variables", Definition{
			Record:   []string{"input string"},
			Fixtures: map[string]any{"TEST_STR": "Hello"},
			Verify:   "input == TEST_STR",
		}, Row{"input": "Hello"}, true),
		Entry("string extensions", Definition{Record: []string{"input string", "expected string"}, Verify: "input.upperAscii() == expected"},
			Row{"input": "Hello", "expected": "HELLO"}, true),
		Entry("durations", Definition{Record: []string{"wait duration"}, Verify: "wait < duration('1s')"},
			Row{"wait": 150 * time.Millisecond}, true),
		Entry("lists", Definition{Record: []string{"tags strings"}, Verify: "'fast' in tags"},
			Row{"tags": []string{"fast", "local"}}, true),
	)

	It("fails the unit when the expression is false", func() {
		def := Definition{Group: "g", Record: []string{"n int"}, Verify: "n > 0"}
		verifier, err := NewCELVerifier(def)
		Expect(err).NotTo(HaveOccurred())

		session := unit.NewSession()
		tb := table.New[Row]("g").Case("neg", Row{"n": int64(-1)}).Case("pos", Row{"n": int64(1)}).WithTrace(unit.Discard)
		Expect(tb.RunOn(session, verifier.Verify)).To(Succeed())

		neg, _ := session.Result("g/neg")
		Expect(neg.State).To(Equal(unit.Failed))
		Expect(neg.Messages).To(ConsistOf(ContainSubstring("n > 0 is false")))
		pos, _ := session.Result("g/pos")
		Expect(pos.State).To(Equal(unit.Passed))
	})

	It("stops the unit on evaluation errors", func() {
		def := Definition{Group: "g", Record: []string{"n int"}, Verify: "n / 0 == 1"}
		verifier, err := NewCELVerifier(def)
		Expect(err).NotTo(HaveOccurred())

		session := unit.NewSession()
		tb := table.New[Row]("g").Case("zero", Row{"n": int64(1)}).WithTrace(unit.Discard)
		Expect(tb.RunOn(session, verifier.Verify)).To(Succeed())
		r, _ := session.Result("g/zero")
		Expect(r.State).To(Equal(unit.Failed))
		Expect(r.Messages).To(HaveLen(1))
	})

	DescribeTable("rejects bad definitions",
		func(def Definition, match OmegaMatcher) {
			_, err := NewCELVerifier(def)
			Expect(err).To(match)
		},
		Entry("no expression", Definition{Record: []string{"n int"}}, MatchError(ErrNoVerify)),
		Entry("no record", Definition{Verify: "true"}, MatchError(ErrNoRecord)),
		Entry("syntax error", Definition{Record: []string{"n int"}, Verify: "n >"}, MatchError(ContainSubstring("compile"))),
		Entry("undeclared variable", Definition{Record: []string{"n int"}, Verify: "m > 0"}, MatchError(ContainSubstring("undeclared reference"))),
	)

	It("rejects non-boolean results", func() {
		verifier, err := NewCELVerifier(Definition{Record: []string{"n int"}, Verify: "n + 1"})
		Expect(err).NotTo(HaveOccurred())
		_, err = verifier.Eval(Row{"n": int64(1)})
		Expect(err).To(MatchError(ContainSubstring("did not return a boolean")))
	})
})
