package cfg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDataVariable is matched by every DataVariableError.
var ErrDataVariable = errors.New("data variable error")

// DataVariableError reports a configuration value that is not one of the
// supported literal kinds, or not the kind a key requires.
type DataVariableError struct {
	Section string
	Key     string
	Value   string
	Line    int
	Reason  string
}

// Error implements the error interface.
func (e *DataVariableError) Error() string {
	loc := e.Section
	if e.Line > 0 {
		loc = fmt.Sprintf("%s (line %d)", e.Section, e.Line)
	}
	return fmt.Sprintf("%s: %s = %q: %s", loc, e.Key, e.Value, e.Reason)
}

// Unwrap returns ErrDataVariable.
func (e *DataVariableError) Unwrap() error { return ErrDataVariable }

// ValueKind tags the literal kind of a Value.
type ValueKind uint8

// Supported literal kinds.
const (
	KindInt ValueKind = iota + 1
	KindFloat
	KindString
	KindFloats
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindFloats:
		return "float list"
	default:
		return "unknown"
	}
}

// Value is a parsed configuration literal.
type Value struct {
	kind ValueKind
	raw  string
	i    int
	f    float64
	s    string
	list []float64
}

// ParseValue parses text into exactly one of: integer, float, quoted string,
// bare identifier (e.g. leaky), or comma-separated list of numbers. Anything
// else is rejected; nothing is ever evaluated.
func ParseValue(text string) (Value, error) {
	raw := strings.TrimSpace(text)
	v := Value{raw: raw}
	switch {
	case raw == "":
		return v, errors.New("empty value")
	case isQuoted(raw):
		s, err := unquote(raw)
		if err != nil {
			return v, fmt.Errorf("malformed string: %w", err)
		}
		v.kind, v.s = KindString, s
		return v, nil
	}
	if i, err := strconv.Atoi(raw); err == nil {
		v.kind, v.i = KindInt, i
		return v, nil
	}
	if isIdentifier(raw) {
		v.kind, v.s = KindString, raw
		return v, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		v.kind, v.f = KindFloat, f
		return v, nil
	}
	if strings.Contains(raw, ",") {
		parts := strings.Split(raw, ",")
		v.list = make([]float64, len(parts))
		for n, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return v, fmt.Errorf("list element %d %q is not a number", n, strings.TrimSpace(p))
			}
			v.list[n] = f
		}
		v.kind = KindFloats
		return v, nil
	}
	return v, errors.New("not an integer, float, string or list of floats")
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'')
}

func unquote(s string) (string, error) {
	if s[0] == '\'' {
		inner := s[1 : len(s)-1]
		if strings.ContainsRune(inner, '\'') {
			return "", errors.New("unescaped quote")
		}
		return inner, nil
	}
	return strconv.Unquote(s)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if i == 0 && !letter {
			return false
		}
		if !letter && !digit && r != '.' && r != '-' {
			return false
		}
	}
	return true
}

// Kind returns the literal kind.
func (v Value) Kind() ValueKind { return v.kind }

// Raw returns the trimmed source text.
func (v Value) Raw() string { return v.raw }

// Int returns the value as an integer. Floats with no fractional part convert.
func (v Value) Int() (int, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == float64(int(v.f)) {
			return int(v.f), true
		}
	}
	return 0, false
}

// Float returns the value as a float.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Str returns the value as a string.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

// Floats returns the value as a list. A single number is a one-element list.
func (v Value) Floats() ([]float64, bool) {
	switch v.kind {
	case KindFloats:
		return v.list, true
	case KindInt, KindFloat:
		f, _ := v.Float()
		return []float64{f}, true
	}
	return nil, false
}

// Ints returns the value as a list of integers.
func (v Value) Ints() ([]int, bool) {
	fs, ok := v.Floats()
	if !ok {
		return nil, false
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		if f != float64(int(f)) {
			return nil, false
		}
		out[i] = int(f)
	}
	return out, true
}

// Bool interprets integers (non-zero), and the strings true/false.
func (v Value) Bool() (bool, bool) {
	switch v.kind {
	case KindInt:
		return v.i != 0, true
	case KindString:
		switch strings.ToLower(v.s) {
		case "true", "yes", "on":
			return true, true
		case "false", "no", "off":
			return false, true
		}
	}
	return false, false
}
