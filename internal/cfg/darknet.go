package cfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Parse reads a darknet-style configuration:
//
//	# comment
//	[section]
//	key = value
func Parse(r io.Reader) (*File, error) {
	f := &File{}
	var cur *Section

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' || text[0] == ';' {
			continue
		}

		if text[0] == '[' {
			if text[len(text)-1] != ']' {
				return nil, fmt.Errorf("line %d: malformed section header %q", line, text)
			}
			typ := strings.TrimSpace(text[1 : len(text)-1])
			if typ == "" {
				return nil, fmt.Errorf("line %d: empty section name", line)
			}
			cur = f.add(typ, line)
			continue
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: expected key=value, got %q", line, text)
		}
		if cur == nil {
			return nil, fmt.Errorf("line %d: parameter %q outside of any section", line, strings.TrimSpace(key))
		}
		if err := cur.set(strings.TrimSpace(key), value, line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return f, nil
}

// Load parses the file at path, choosing the syntax by extension
// (.yaml/.yml for YAML, anything else darknet-style).
func Load(path string) (*File, error) {
	//nolint:gosec // G304: config path comes from the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var parsed *File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parsed, err = ParseYAML(file)
	default:
		parsed, err = Parse(file)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parsed, nil
}
