// Package fixtures loads case tables from markdown and YAML files and
// verifies them with CEL expressions.
//
// # Markdown Table Format
//
// Front matter declares the record, the fixtures and the verify expression.
// Each table below a "##" heading is one group:
//
//	---
//	fixtures:
//	  TEST_STR: Hello
//	record:
//	  - input string
//	  - expected int
//	verify: size(input) == expected
//	---
//
//	## string_length
//
//	| Name         | Skip | input          | expected |
//	|--------------|------|----------------|----------|
//	| empty_string |      |                | 0        |
//	| null_string  | x    | "\x00"         | 1        |
//	| hello_string |      | {{.TEST_STR}}  | 5        |
//
// Cells are gomplate templates rendered against the fixtures, then converted
// to the declared field type. Cells quoted as Go string literals are
// unquoted. Empty cells take the zero value of the field.
//
// # YAML Format
//
//	group: string_length
//	record: [input string, expected int]
//	verify: size(input) == expected
//	cases:
//	  - name: empty_string
//	    values: {input: "", expected: 0}
//
// A "groups" list declares several groups inheriting the top-level settings.
//
// # Field Types
//
// string, int, float, bool, duration, strings (comma separated) and semver
// (normalized to "1.2.0") are registered by default. Additional types implement FieldType and are added
// with Register.
package fixtures
