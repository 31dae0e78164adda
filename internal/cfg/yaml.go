package cfg

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads the YAML form of a configuration:
//
//	net:
//	  batch: 1
//	layers:
//	  - type: convolutional
//	    filters: 16
//	  - type: route
//	    layers: [-1, 8]
//
// Scalars go through the same literal parser as the darknet syntax; flow
// sequences of numbers become lists.
func ParseYAML(r io.Reader) (*File, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return &File{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}

	f := &File{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "net", "network":
			if val.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: %s must be a mapping", val.Line, key.Value)
			}
			if err := fillSection(f.add(key.Value, key.Line), val, ""); err != nil {
				return nil, err
			}
		case "layers":
			if val.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: layers must be a sequence", val.Line)
			}
			for _, item := range val.Content {
				if err := addLayer(f, item); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("line %d: unknown top-level key %q", key.Line, key.Value)
		}
	}
	return f, nil
}

func addLayer(f *File, item *yaml.Node) error {
	if item.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: layer must be a mapping", item.Line)
	}
	typ := ""
	for i := 0; i+1 < len(item.Content); i += 2 {
		if item.Content[i].Value == "type" {
			typ = item.Content[i+1].Value
		}
	}
	if typ == "" {
		return fmt.Errorf("line %d: layer without type", item.Line)
	}
	return fillSection(f.add(typ, item.Line), item, "type")
}

func fillSection(s *Section, m *yaml.Node, skip string) error {
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, val := m.Content[i], m.Content[i+1]
		if key.Value == skip {
			continue
		}
		text, err := scalarText(val)
		if err != nil {
			return &DataVariableError{Section: s.Name, Key: key.Value, Line: val.Line, Reason: err.Error()}
		}
		if err := s.set(key.Value, text, val.Line); err != nil {
			return err
		}
	}
	return nil
}

// scalarText renders a YAML value as literal text for ParseValue.
func scalarText(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
			return fmt.Sprintf("%q", n.Value), nil
		}
		return n.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, len(n.Content))
		for i, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return "", errors.New("nested sequences are not supported")
			}
			parts[i] = c.Value
		}
		return strings.Join(parts, ","), nil
	default:
		return "", errors.New("expected a scalar or a sequence of numbers")
	}
}
