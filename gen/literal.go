package gen

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// literal renders a table value as Go source.
func literal(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s, nil
	case time.Duration:
		return durationLiteral(x), nil
	case []string:
		quoted := make([]string, len(x))
		for i, s := range x {
			quoted[i] = strconv.Quote(s)
		}
		return "[]string{" + strings.Join(quoted, ", ") + "}", nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

var durationUnits = []struct {
	unit time.Duration
	name string
}{
	{time.Hour, "time.Hour"},
	{time.Minute, "time.Minute"},
	{time.Second, "time.Second"},
	{time.Millisecond, "time.Millisecond"},
	{time.Microsecond, "time.Microsecond"},
}

// durationLiteral renders d in the largest unit dividing it: 1500ms is
// "1500 * time.Millisecond".
func durationLiteral(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	for _, u := range durationUnits {
		if d%u.unit == 0 {
			n := d / u.unit
			if n == 1 {
				return u.name
			}
			return fmt.Sprintf("%d * %s", n, u.name)
		}
	}
	return fmt.Sprintf("%d * time.Nanosecond", d)
}

var uppercaseFixups = map[string]bool{"id": true, "url": true, "http": true, "json": true}

// exportedName formats a group or field name as an exported Go identifier:
// "string_length" is "StringLength", "user-id" is "UserID".
func exportedName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, p := range parts {
		if uppercaseFixups[strings.ToLower(p)] {
			parts[i] = strings.ToUpper(p)
			continue
		}
		runes := []rune(p)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	name := strings.Join(parts, "")
	if name == "" {
		return "X"
	}
	if !unicode.IsLetter([]rune(name)[0]) {
		name = "X" + name
	}
	return name
}

// unexportedName is exportedName with a lower-case first word.
func unexportedName(s string) string {
	name := exportedName(s)
	runes := []rune(name)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		// keep the last capital of an initialism followed by a word: "IDValue" is "idValue"
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
		i++
	}
	return string(runes)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '_' || (i > 0 && unicode.IsDigit(r))) {
			return false
		}
	}
	return s != ""
}

// packageName turns a directory name into a package name.
func packageName(dir string) string {
	name := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, dir))
	if name == "" || !unicode.IsLetter([]rune(name)[0]) {
		return "tables"
	}
	return name
}
