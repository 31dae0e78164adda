// Package cfg parses network configuration files into an ordered list of
// named sections with typed key/value parameters.
//
// Two surface syntaxes produce the same Sections:
//
//	[net]                      net:
//	batch=1                      batch: 1
//	width=416                    width: 416
//	                           layers:
//	[convolutional]              - type: convolutional
//	filters=16                     filters: 16
//	activation=leaky               activation: leaky
//
// Section names carry a numeric disambiguator (net1, convolutional2, ...);
// Type strips it to recover the layer type key.
package cfg

import (
	"fmt"
	"strings"
)

// HeaderTypes are the section types that carry global network defaults.
var HeaderTypes = []string{"net", "network"}

// Param is one key/value pair of a section.
type Param struct {
	Key   string
	Value Value
	Line  int
}

// Section is one named block of the configuration.
type Section struct {
	Name   string // type key plus position, e.g. "convolutional2"
	Line   int
	Params []Param
}

// Type returns the section name with its numeric disambiguator removed.
func (s *Section) Type() string {
	return strings.TrimRight(s.Name, "0123456789")
}

// IsHeader reports whether the section carries network-wide defaults.
func (s *Section) IsHeader() bool {
	t := s.Type()
	for _, h := range HeaderTypes {
		if t == h {
			return true
		}
	}
	return false
}

// Get returns the last value set for key.
func (s *Section) Get(key string) (Param, bool) {
	for i := len(s.Params) - 1; i >= 0; i-- {
		if s.Params[i].Key == key {
			return s.Params[i], true
		}
	}
	return Param{}, false
}

// Has reports whether key is set.
func (s *Section) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *Section) kindError(p Param, want ValueKind) error {
	return &DataVariableError{Section: s.Name, Key: p.Key, Value: p.Value.Raw(), Line: p.Line,
		Reason: fmt.Sprintf("expected %s, got %s", want, p.Value.Kind())}
}

// Int returns key as an integer, or def when absent.
func (s *Section) Int(key string, def int) (int, error) {
	p, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	v, ok := p.Value.Int()
	if !ok {
		return 0, s.kindError(p, KindInt)
	}
	return v, nil
}

// Float returns key as a float, or def when absent.
func (s *Section) Float(key string, def float64) (float64, error) {
	p, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	v, ok := p.Value.Float()
	if !ok {
		return 0, s.kindError(p, KindFloat)
	}
	return v, nil
}

// String returns key as a string, or def when absent.
func (s *Section) String(key, def string) (string, error) {
	p, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	v, ok := p.Value.Str()
	if !ok {
		return "", s.kindError(p, KindString)
	}
	return v, nil
}

// Ints returns key as a list of integers, or def when absent.
func (s *Section) Ints(key string, def []int) ([]int, error) {
	p, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	v, ok := p.Value.Ints()
	if !ok {
		return nil, s.kindError(p, KindFloats)
	}
	return v, nil
}

// Bool returns key as a flag, or def when absent.
func (s *Section) Bool(key string, def bool) (bool, error) {
	p, ok := s.Get(key)
	if !ok {
		return def, nil
	}
	v, ok := p.Value.Bool()
	if !ok {
		return false, s.kindError(p, KindInt)
	}
	return v, nil
}

// File is a parsed configuration: sections in file order.
type File struct {
	Sections []*Section
}

// Header returns the first header section, or nil.
func (f *File) Header() *Section {
	for _, s := range f.Sections {
		if s.IsHeader() {
			return s
		}
	}
	return nil
}

// Layers returns the non-header sections in file order.
func (f *File) Layers() []*Section {
	out := make([]*Section, 0, len(f.Sections))
	for _, s := range f.Sections {
		if !s.IsHeader() {
			out = append(out, s)
		}
	}
	return out
}

// add appends a section named after its type and 1-based position.
func (f *File) add(typ string, line int) *Section {
	s := &Section{Name: fmt.Sprintf("%s%d", typ, len(f.Sections)+1), Line: line}
	f.Sections = append(f.Sections, s)
	return s
}

// set parses and appends a parameter.
func (s *Section) set(key, text string, line int) error {
	v, err := ParseValue(text)
	if err != nil {
		return &DataVariableError{Section: s.Name, Key: key, Value: strings.TrimSpace(text), Line: line, Reason: err.Error()}
	}
	s.Params = append(s.Params, Param{Key: key, Value: v, Line: line})
	return nil
}
