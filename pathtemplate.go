// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package catalystwan

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// MaxPathLength is the maximum length for a path template or expanded path
const MaxPathLength = 2048

var placeholderName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// segment is either a literal run or a placeholder
type segment struct {
	literal string
	param   string
}

// PathTemplate is a parsed endpoint path such as "/tenant/{tenantId}/vsmart".
type PathTemplate struct {
	raw      string
	segments []segment
	params   []string
}

// ParsePathTemplate parses a path template with brace-delimited placeholders.
//
// Checks:
//   - Path starts with "/" and does not exceed MaxPathLength
//   - Braces are balanced and not nested
//   - Placeholder names are identifiers and unique within the template
//   - No null bytes or "/../" traversal patterns
func ParsePathTemplate(path string) (PathTemplate, error) {
	if path == "" || path[0] != '/' {
		return PathTemplate{}, fmt.Errorf("path must start with '/': %q", path)
	}
	if len(path) > MaxPathLength {
		return PathTemplate{}, fmt.Errorf("path exceeds maximum length of %d characters", MaxPathLength)
	}
	if err := checkPathSecurity(path); err != nil {
		return PathTemplate{}, err
	}

	t := PathTemplate{raw: path}
	seen := map[string]bool{}
	var lit strings.Builder
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '{':
			end := strings.IndexByte(path[i+1:], '}')
			if end < 0 {
				return PathTemplate{}, fmt.Errorf("unclosed '{' at position %d in %q", i, path)
			}
			name := path[i+1 : i+1+end]
			if strings.ContainsRune(name, '{') {
				return PathTemplate{}, fmt.Errorf("nested '{' at position %d in %q", i, path)
			}
			if !placeholderName.MatchString(name) {
				return PathTemplate{}, fmt.Errorf("invalid placeholder name %q in %q", name, path)
			}
			if seen[name] {
				return PathTemplate{}, fmt.Errorf("duplicate placeholder %q in %q", name, path)
			}
			seen[name] = true
			if lit.Len() > 0 {
				t.segments = append(t.segments, segment{literal: lit.String()})
				lit.Reset()
			}
			t.segments = append(t.segments, segment{param: name})
			t.params = append(t.params, name)
			i += end + 1
		case '}':
			return PathTemplate{}, fmt.Errorf("unmatched '}' at position %d in %q", i, path)
		default:
			lit.WriteByte(path[i])
		}
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{literal: lit.String()})
	}
	return t, nil
}

// String returns the template as written
func (t PathTemplate) String() string {
	return t.raw
}

// Placeholders returns placeholder names in order of appearance
func (t PathTemplate) Placeholders() []string {
	out := make([]string, len(t.params))
	copy(out, t.params)
	return out
}

// Expand substitutes placeholders with args.
//
// Every placeholder needs a non-empty value and args may not carry unknown
// names. Values are escaped per path segment, so a value may span several
// segments ("lan/vpn/interface/ethernet") but may not contain "." or ".."
// segments.
func (t PathTemplate) Expand(args map[string]string) (string, error) {
	used := 0
	var b strings.Builder
	b.Grow(len(t.raw))
	for _, seg := range t.segments {
		if seg.param == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, ok := args[seg.param]
		if !ok {
			return "", fmt.Errorf("missing path argument %q for %s", seg.param, t.raw)
		}
		if v == "" {
			return "", fmt.Errorf("path argument %q cannot be empty", seg.param)
		}
		escaped, err := escapePathValue(v)
		if err != nil {
			return "", fmt.Errorf("path argument %q: %w", seg.param, err)
		}
		b.WriteString(escaped)
		used++
	}
	if used != len(args) {
		var unknown []string
		for k := range args {
			if !t.has(k) {
				unknown = append(unknown, k)
			}
		}
		sort.Strings(unknown)
		return "", fmt.Errorf("unknown path arguments %v for %s", unknown, t.raw)
	}
	return b.String(), nil
}

func (t PathTemplate) has(name string) bool {
	for _, p := range t.params {
		if p == name {
			return true
		}
	}
	return false
}

func escapePathValue(v string) (string, error) {
	parts := strings.Split(v, "/")
	for i, p := range parts {
		if p == "" || p == "." || p == ".." {
			return "", fmt.Errorf("invalid path segment %q in %q", p, v)
		}
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/"), nil
}

// checkPathSecurity checks a path for malicious patterns
//
// Checks for:
//   - Null bytes (path injection)
//   - Path traversal patterns (/../)
func checkPathSecurity(path string) error {
	if i := strings.IndexByte(path, 0); i >= 0 {
		return fmt.Errorf("path contains null byte at position %d", i)
	}
	if i := strings.Index(path, "/../"); i >= 0 {
		return fmt.Errorf("path contains suspicious traversal pattern '/../' at position %d", i)
	}
	if strings.HasSuffix(path, "/..") {
		return fmt.Errorf("path ends with traversal pattern '/..'")
	}
	return nil
}
