package fixtures

import (
	"time"

	"github.com/google/cel-go/cel"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type hexType struct{ intType }

func (hexType) Name() string { return "hex" }

var _ = Describe("Field type registry", func() {
	It("resolves builtin names and aliases", func() {
		for _, name := range []string{"string", "str", "int", "integer", "int64", "float", "double", "bool", "duration", "strings", "[]string", "semver", "version"} {
			_, ok := Get(name)
			Expect(ok).To(BeTrue(), name)
		}
		_, ok := Get("complex")
		Expect(ok).To(BeFalse())
	})

	It("rejects duplicate registrations", func() {
		r := NewRegistry()
		Expect(r.Register(hexType{}, "base16")).To(Succeed())
		Expect(r.Register(hexType{})).To(MatchError(ContainSubstring("already registered")))
		Expect(r.Register(intType{}, "base16")).To(HaveOccurred())
		_, ok := r.Get("int")
		Expect(ok).To(BeFalse())
		Expect(r.List()).To(Equal([]string{"base16", "hex"}))
	})

	DescribeTable("parses cells",
		func(typ, raw string, expected any) {
			ft, ok := Get(typ)
			Expect(ok).To(BeTrue())
			v, err := ft.Parse(raw)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(expected))
		},
		Entry("plain string", "string", "Hello", "Hello"),
		Entry("quoted string", "string", `"\x00"`, "\x00"),
		Entry("quoted empty string", "string", `""`, ""),
		Entry("int", "int", "42", int64(42)),
		Entry("hex int", "int", "0x10", int64(16)),
		Entry("negative int", "int", "-3", int64(-3)),
		Entry("float", "float", "1.5", 1.5),
		Entry("bool", "bool", "true", true),
		Entry("duration", "duration", "1m30s", 90*time.Second),
		Entry("strings", "strings", "a, b,c", []string{"a", "b", "c"}),
		Entry("empty strings", "strings", " ", []string{}),
		Entry("semver", "semver", "v1.2", "1.2.0"),
		Entry("prerelease", "version", "2.0.0-rc.1", "2.0.0-rc.1"),
	)

	DescribeTable("rejects invalid cells",
		func(typ, raw string) {
			ft, _ := Get(typ)
			_, err := ft.Parse(raw)
			Expect(err).To(MatchError(ErrInvalidValue))
		},
		Entry("int", "int", "forty"),
		Entry("float", "float", "1,5"),
		Entry("bool", "bool", "maybe"),
		Entry("duration", "duration", "soon"),
		Entry("bad literal", "string", `"\q"`),
		Entry("semver", "semver", "one"),
	)

	DescribeTable("coerces decoded YAML values",
		func(typ string, in, expected any) {
			ft, _ := Get(typ)
			v, err := ft.Coerce(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal(expected))
		},
		Entry("uint64 to int", "int", uint64(7), int64(7)),
		Entry("whole float to int", "int", float64(3), int64(3)),
		Entry("int to float", "float", int64(2), float64(2)),
		Entry("number to string", "string", uint64(5), "5"),
		Entry("list to strings", "strings", []any{"a", 1}, []string{"a", "1"}),
		Entry("string to duration", "duration", "2s", 2*time.Second),
		Entry("number to semver", "semver", 1.5, "1.5.0"),
	)

	It("rejects fractional ints", func() {
		ft, _ := Get("int")
		_, err := ft.Coerce(1.5)
		Expect(err).To(MatchError(ErrInvalidValue))
	})

	It("maps types to CEL", func() {
		ft, _ := Get("strings")
		Expect(ft.CELType()).To(Equal(cel.ListType(cel.StringType)))
		ft, _ = Get("duration")
		Expect(ft.GoType()).To(Equal("time.Duration"))
	})
})
