package fixtures

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/glebziz/rtest/table"
)

type lengthCase struct {
	Input    string `yaml:"input"`
	Expected int    `yaml:"expected"`
}

type timeoutCase struct {
	Wait time.Duration `yaml:"wait"`
	Tags []string      `yaml:"tags"`
}

func stringLength() Definition {
	defs, err := ParseMarkdown(stringLengthMarkdown, "strings.md")
	Expect(err).NotTo(HaveOccurred())
	return defs[0]
}

var _ = Describe("Loading tables", func() {
	It("converts cells into typed rows", func() {
		entries, err := stringLength().Entries()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(Equal([]table.Entry[Row]{
			{Name: "empty_string", Value: Row{"input": "", "expected": int64(0)}},
			{Name: "null_string", Skip: true, Value: Row{"input": "\x00", "expected": int64(1)}},
			{Name: "hello_string", Value: Row{"input": "Hello", "expected": int64(5)}},
		}))
	})

	It("builds a row table carrying the fixtures", func() {
		tb, err := Rows(stringLength())
		Expect(err).NotTo(HaveOccurred())
		Expect(tb.Group).To(Equal("string_length"))
		Expect(tb.Names()).To(Equal([]string{"empty_string", "null_string", "hello_string"}))
		v, ok := tb.Lookup("TEST_STR")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("Hello"))
	})

	It("decodes rows into a record struct", func() {
		def := stringLength()
		def.Cases = def.Cases[2:]
		tb, err := Load[lengthCase](def)
		Expect(err).NotTo(HaveOccurred())
		Expect(tb.Entries).To(Equal([]table.Entry[lengthCase]{
			{Name: "hello_string", Value: lengthCase{Input: "Hello", Expected: 5}},
		}))
	})

	It("decodes durations and lists", func() {
		tb, err := Load[timeoutCase](Definition{
			Group:  "timeouts",
			Record: []string{"wait duration", "tags strings"},
			Cases: []CaseSpec{
				{Name: "short", Values: map[string]any{"wait": "150ms", "tags": "fast, local"}},
				{Name: "none"},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tb.Entries[0].Value).To(Equal(timeoutCase{Wait: 150 * time.Millisecond, Tags: []string{"fast", "local"}}))
		Expect(tb.Entries[1].Value.Wait).To(BeZero())
		Expect(tb.Entries[1].Value.Tags).To(BeEmpty())
	})

	It("matches columns to fields case-insensitively", func() {
		entries, err := Definition{
			Group:  "g",
			Record: []string{"input string"},
			Cases:  []CaseSpec{{Name: "a", Values: map[string]any{"Input": "x"}}},
		}.Entries()
		Expect(err).NotTo(HaveOccurred())
		Expect(entries[0].Value).To(Equal(Row{"input": "x"}))
	})

	DescribeTable("reports errors with group and case",
		func(def Definition, sentinel error, caseName string) {
			_, err := Rows(def)
			Expect(err).To(MatchError(sentinel))
			var caseErr *table.CaseError
			Expect(errors.As(err, &caseErr)).To(BeTrue())
			Expect(caseErr.Group).To(Equal(def.Group))
			Expect(caseErr.Case).To(Equal(caseName))
		},
		Entry("no record", Definition{Group: "g"}, ErrNoRecord, ""),
		Entry("unknown type", Definition{Group: "g", Record: []string{"a complex"}}, ErrUnknownType, ""),
		Entry("bad declaration", Definition{Group: "g", Record: []string{"a"}}, ErrInvalidField, ""),
		Entry("field declared twice", Definition{Group: "g", Record: []string{"a int", "a string"}}, ErrInvalidField, ""),
		Entry("unknown column", Definition{
			Group:  "g",
			Record: []string{"a int"},
			Cases:  []CaseSpec{{Name: "c1", Values: map[string]any{"b": "1"}}},
		}, ErrUnknownField, "c1"),
		Entry("invalid value", Definition{
			Group:  "g",
			Record: []string{"a int"},
			Cases:  []CaseSpec{{Name: "c1", Values: map[string]any{"a": "one"}}},
		}, ErrInvalidValue, "c1"),
		Entry("keyword field", Definition{Group: "g", Record: []string{"func int"}}, ErrInvalidField, ""),
		Entry("keyword fixture", Definition{
			Group:    "g",
			Record:   []string{"a int"},
			Fixtures: map[string]any{"func": 1},
			Cases:    []CaseSpec{{Name: "c1"}},
		}, table.ErrInvalidName, ""),
		Entry("fixture named like a field", Definition{
			Group:    "g",
			Record:   []string{"a int"},
			Fixtures: map[string]any{"a": 1},
		}, ErrFixtureClash, ""),
		Entry("duplicate case", Definition{
			Group:  "g",
			Record: []string{"a int"},
			Cases:  []CaseSpec{{Name: "c1"}, {Name: "c1", Skip: true}},
		}, table.ErrDuplicateCase, "c1"),
	)

	It("reports the first bad cell in declared field order", func() {
		def := Definition{
			Group:  "g",
			Record: []string{"a int", "b int", "c int"},
			Cases: []CaseSpec{{Name: "c1", Values: map[string]any{
				"zz": "1", "c": "three", "b": "two", "a": "1",
			}}},
		}
		for range 20 {
			_, err := Rows(def)
			Expect(err).To(MatchError(ErrInvalidValue))
			Expect(err.Error()).To(ContainSubstring(`field "b"`))
		}

		def.Cases[0].Values = map[string]any{"zz": "1", "yy": "2", "a": "1"}
		for range 20 {
			_, err := Rows(def)
			Expect(err).To(MatchError(ErrUnknownField))
			Expect(err.Error()).To(ContainSubstring(`"yy"`))
		}
	})

	It("fails template errors before any unit exists", func() {
		_, err := Rows(Definition{
			Group:  "g",
			Record: []string{"a string"},
			Cases:  []CaseSpec{{Name: "c1", Values: map[string]any{"a": "{{ .Missing"}}},
		})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring(`case "c1"`))
	})

	It("normalizes fixture numbers", func() {
		def := Definition{Group: "g", Record: []string{"a int"}, Fixtures: map[string]any{"N": uint64(3), "M": 2}}
		fields, err := def.Fields()
		Expect(err).NotTo(HaveOccurred())
		values, err := def.fixtureValues(fields)
		Expect(err).NotTo(HaveOccurred())
		Expect(values).To(Equal(map[string]any{"N": int64(3), "M": int64(2)}))
	})
})
