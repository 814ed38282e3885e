package fixtures

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/cel-go/cel"
	"github.com/samber/lo"
)

type stringType struct{}

func (stringType) Name() string       { return "string" }
func (stringType) GoType() string     { return "string" }
func (stringType) CELType() *cel.Type { return cel.StringType }
func (stringType) Zero() any          { return "" }

// Parse unquotes cells written as Go string literals ("\x00"), other cells
// are taken verbatim.
func (stringType) Parse(raw string) (any, error) {
	if len(raw) >= 2 && strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, raw, err)
		}
		return s, nil
	}
	return raw, nil
}

func (s stringType) Coerce(v any) (any, error) {
	if str, ok := v.(string); ok {
		return s.Parse(str)
	}
	return fmt.Sprint(v), nil
}

type intType struct{}

func (intType) Name() string       { return "int" }
func (intType) GoType() string     { return "int" }
func (intType) CELType() *cel.Type { return cel.IntType }
func (intType) Zero() any          { return int64(0) }

func (intType) Parse(raw string) (any, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not an int", ErrInvalidValue, raw)
	}
	return n, nil
}

func (i intType) Coerce(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows int", ErrInvalidValue, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%w: %v is not an int", ErrInvalidValue, n)
		}
		return int64(n), nil
	case string:
		return i.Parse(n)
	}
	return nil, fmt.Errorf("%w: %v (%T) is not an int", ErrInvalidValue, v, v)
}

type floatType struct{}

func (floatType) Name() string       { return "float" }
func (floatType) GoType() string     { return "float64" }
func (floatType) CELType() *cel.Type { return cel.DoubleType }
func (floatType) Zero() any          { return float64(0) }

func (floatType) Parse(raw string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a float", ErrInvalidValue, raw)
	}
	return f, nil
}

func (f floatType) Coerce(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return f.Parse(n)
	}
	return nil, fmt.Errorf("%w: %v (%T) is not a float", ErrInvalidValue, v, v)
}

type boolType struct{}

func (boolType) Name() string       { return "bool" }
func (boolType) GoType() string     { return "bool" }
func (boolType) CELType() *cel.Type { return cel.BoolType }
func (boolType) Zero() any          { return false }

func (boolType) Parse(raw string) (any, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a bool", ErrInvalidValue, raw)
	}
	return b, nil
}

func (b boolType) Coerce(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return b.Parse(x)
	}
	return nil, fmt.Errorf("%w: %v (%T) is not a bool", ErrInvalidValue, v, v)
}

type durationType struct{}

func (durationType) Name() string       { return "duration" }
func (durationType) GoType() string     { return "time.Duration" }
func (durationType) CELType() *cel.Type { return cel.DurationType }
func (durationType) Zero() any          { return time.Duration(0) }

func (durationType) Parse(raw string) (any, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a duration", ErrInvalidValue, raw)
	}
	return d, nil
}

func (d durationType) Coerce(v any) (any, error) {
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case string:
		return d.Parse(x)
	}
	return nil, fmt.Errorf("%w: %v (%T) is not a duration", ErrInvalidValue, v, v)
}

type stringsType struct{}

func (stringsType) Name() string       { return "strings" }
func (stringsType) GoType() string     { return "[]string" }
func (stringsType) CELType() *cel.Type { return cel.ListType(cel.StringType) }
func (stringsType) Zero() any          { return []string{} }

// Parse splits a cell on commas.
func (stringsType) Parse(raw string) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	}), nil
}

func (s stringsType) Coerce(v any) (any, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		return lo.Map(x, func(item any, _ int) string { return fmt.Sprint(item) }), nil
	case string:
		return s.Parse(x)
	}
	return nil, fmt.Errorf("%w: %v (%T) is not a list of strings", ErrInvalidValue, v, v)
}

// semverType holds semantic versions in their canonical form, "v1.2" is
// "1.2.0".
type semverType struct{}

func (semverType) Name() string       { return "semver" }
func (semverType) GoType() string     { return "string" }
func (semverType) CELType() *cel.Type { return cel.StringType }
func (semverType) Zero() any          { return "" }

func (semverType) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a semantic version: %v", ErrInvalidValue, raw, err)
	}
	return v.String(), nil
}

func (s semverType) Coerce(v any) (any, error) {
	return s.Parse(fmt.Sprint(v))
}
