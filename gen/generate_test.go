package gen

import (
	"bytes"
	"errors"
	"go/parser"
	"go/token"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/glebziz/rtest/fixtures"
	"github.com/glebziz/rtest/table"
)

var _ = Describe("Generate", func() {
	def := func() fixtures.Definition {
		return fixtures.Definition{
			Group:    "string_length",
			Fixtures: map[string]any{"TEST_STR": "Hello"},
			Record:   []string{"input string", "expected int"},
			Cases: []fixtures.CaseSpec{
				{Name: "empty_string", Values: map[string]any{"expected": "0"}},
				{Name: "null_string", Skip: true, Values: map[string]any{"input": `"\x00"`, "expected": "1"}},
				{Name: "hello_string", Values: map[string]any{"input": "{{ .TEST_STR }}", "expected": "5"}},
			},
		}
	}

	generate := func(defs ...fixtures.Definition) (string, error) {
		var buf bytes.Buffer
		err := Generate(&buf, defs, Options{Package: "lengths", Source: "strings.md"})
		return buf.String(), err
	}

	It("emits one registration per entry in order", func() {
		out, err := generate(def())
		Expect(err).NotTo(HaveOccurred())

		Expect(out).To(HavePrefix("// Code generated by rtest gen from strings.md. DO NOT EDIT."))
		Expect(out).To(ContainSubstring(`Case("empty_string", stringLengthCase{Input: "", Expected: 0})`))
		Expect(out).To(ContainSubstring(`Skip("null_string", stringLengthCase{Input: "\x00", Expected: 1})`))
		Expect(out).To(ContainSubstring(`Case("hello_string", stringLengthCase{Input: "Hello", Expected: 5})`))
		Expect(out).To(ContainSubstring("func TestStringLength(t *testing.T) {"))
		Expect(out).To(ContainSubstring("stringLengthTable.Run(t, verifyStringLength)"))
	})

	It("produces valid Go", func() {
		out, err := generate(def())
		Expect(err).NotTo(HaveOccurred())
		_, err = parser.ParseFile(token.NewFileSet(), "strings_test.go", out, parser.AllErrors)
		Expect(err).NotTo(HaveOccurred())
	})

	It("is deterministic", func() {
		first, err := generate(def())
		Expect(err).NotTo(HaveOccurred())
		for range 5 {
			again, err := generate(def())
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(first))
		}
	})

	It("imports time only for duration fields", func() {
		out, err := generate(def())
		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(ContainSubstring(`"time"`))

		d := fixtures.Definition{
			Group:  "waits",
			Record: []string{"wait duration"},
			Cases:  []fixtures.CaseSpec{{Name: "short", Values: map[string]any{"wait": "1s"}}},
		}
		out, err = generate(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"time"`))
		Expect(out).To(ContainSubstring("Wait: time.Second"))
	})

	It("uses the declared verification function", func() {
		d := def()
		d.VerifyFunc = "checkLength"
		out, err := generate(d)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("stringLengthTable.Run(t, checkLength)"))
	})

	It("rejects groups declared twice", func() {
		_, err := generate(def(), def())
		Expect(err).To(MatchError(ErrDuplicateGroup))
	})

	It("rejects groups whose Go names collide", func() {
		first := def()
		first.Group = "user_id"
		second := def()
		second.Group = "user-id"
		_, err := generate(first, second)
		Expect(err).To(MatchError(ErrNameCollision))
		var caseErr *table.CaseError
		Expect(errors.As(err, &caseErr)).To(BeTrue())
		Expect(caseErr.Group).To(Equal("user-id"))
		Expect(err.Error()).To(ContainSubstring(`userIDCase is also declared by group "user_id"`))
	})

	It("rejects fixtures declared with different values", func() {
		other := def()
		other.Group = "other"
		other.Fixtures = map[string]any{"TEST_STR": "Bye"}
		_, err := generate(def(), other)
		Expect(err).To(MatchError(ErrFixtureConflict))
	})

	It("reports structural errors like the table expander", func() {
		d := def()
		d.Cases = nil
		_, err := generate(d)
		Expect(err).To(MatchError(table.ErrNoEntries))
		var caseErr *table.CaseError
		Expect(errors.As(err, &caseErr)).To(BeTrue())
		Expect(caseErr.Group).To(Equal("string_length"))
	})

	It("derives the package from the table file", func() {
		out, err := GenerateFile(&fixtures.File{Path: "/src/my-pkg/strings.md", Definitions: []fixtures.Definition{def()}}, Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring("package mypkg\n"))

		d := def()
		d.Package = "lengths_test"
		out, err = GenerateFile(&fixtures.File{Path: "/src/my-pkg/strings.md", Definitions: []fixtures.Definition{d}}, Options{})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(ContainSubstring("package lengths_test\n"))
	})
})

var _ = Describe("Literals", func() {
	DescribeTable("renders values as Go source",
		func(v any, expected string) {
			s, err := literal(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(expected))
		},
		Entry("string", "Hello", `"Hello"`),
		Entry("nul", "\x00", `"\x00"`),
		Entry("quotes", `say "hi"`, `"say \"hi\""`),
		Entry("int64", int64(-5), "-5"),
		Entry("uint64", uint64(7), "7"),
		Entry("whole float", 2.0, "2.0"),
		Entry("float", 0.25, "0.25"),
		Entry("bool", true, "true"),
		Entry("zero duration", time.Duration(0), "0"),
		Entry("one second", time.Second, "time.Second"),
		Entry("milliseconds", 1500*time.Millisecond, "1500 * time.Millisecond"),
		Entry("minutes", 90*time.Minute, "90 * time.Minute"),
		Entry("nanoseconds", 7*time.Nanosecond, "7 * time.Nanosecond"),
		Entry("strings", []string{"a", "b"}, `[]string{"a", "b"}`),
		Entry("empty strings", []string{}, "[]string{}"),
	)

	It("rejects values without a literal", func() {
		_, err := literal(map[string]any{"a": 1})
		Expect(err).To(MatchError(ErrUnsupportedValue))
	})

	DescribeTable("names identifiers",
		func(in, exported, unexported string) {
			Expect(exportedName(in)).To(Equal(exported))
			Expect(unexportedName(in)).To(Equal(unexported))
		},
		Entry("snake case", "string_length", "StringLength", "stringLength"),
		Entry("kebab case", "dial-timeouts", "DialTimeouts", "dialTimeouts"),
		Entry("initialism last", "user_id", "UserID", "userID"),
		Entry("initialism first", "id_value", "IDValue", "idValue"),
		Entry("only initialism", "url", "URL", "url"),
		Entry("dotted", "v1.parse", "V1Parse", "v1Parse"),
		Entry("leading digit", "2fa", "X2fa", "x2fa"),
	)

	It("names packages after directories", func() {
		Expect(packageName("my-pkg")).To(Equal("mypkg"))
		Expect(packageName("Tables")).To(Equal("tables"))
		Expect(packageName("123")).To(Equal("tables"))
	})
})
