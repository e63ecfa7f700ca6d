// Package frontmatter splits content files into a YAML metadata block and a
// body, and parses the block into a field mapping.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Delimiter is the marker line opening and closing a front-matter block.
const Delimiter = "---"

// Style captures formatting details needed for stable rewriting.
//
// It intentionally focuses on newline shape and does not attempt to preserve
// original YAML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// ErrMissingClosingDelimiter indicates the document started with a front-matter
// delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("front-matter start delimiter found but closing delimiter is missing")

// ParseError identifies a malformed front-matter block by source path and line.
//
// Per-document parse failures are collected at the batch level; a single bad
// file must not mask errors in others.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: invalid front matter: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Split separates a `---` delimited front-matter block from the body.
//
// If the document does not start with the delimiter on its first line, had is
// false and body is the full input unchanged. The opening delimiter must be a
// complete line (newline-terminated), so a document whose entire content is a
// bare `---` is all body. The newline following the closing delimiter is
// consumed exactly once; the rest of the body is untouched.
func Split(content []byte) (metadata []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)

	nl := style.Newline
	open := []byte(Delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, style, nil
	}

	blockStart := len(open)
	closeLine := []byte(Delimiter + nl)
	if bytes.HasPrefix(content[blockStart:], closeLine) {
		bodyStart := blockStart + len(closeLine)
		return []byte{}, content[bodyStart:], true, style, nil
	}

	closeSeq := []byte(nl + Delimiter + nl)
	idx := bytes.Index(content[blockStart:], closeSeq)
	if idx < 0 {
		// A bare closing delimiter at EOF (no trailing newline) still closes the block.
		tail := []byte(nl + Delimiter)
		if bytes.HasSuffix(content[blockStart:], tail) {
			end := len(content) - len(Delimiter)
			return content[blockStart:end], []byte{}, true, style, nil
		}
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}

	blockEnd := blockStart + idx + len(nl)
	bodyStart := blockStart + idx + len(closeSeq)
	return content[blockStart:blockEnd], content[bodyStart:], true, style, nil
}

// Parse splits content and decodes the front-matter block into a field mapping.
//
// Documents without a leading delimiter yield an empty mapping and the full
// content as body (static asset semantics). Malformed YAML or an unterminated
// block returns a *ParseError naming path and line; malformed metadata is
// never silently coerced to empty.
func Parse(path string, content []byte) (fields map[string]any, body []byte, had bool, style Style, err error) {
	raw, body, had, style, splitErr := Split(content)
	if splitErr != nil {
		return nil, nil, false, style, &ParseError{Path: path, Line: 1, Err: splitErr}
	}
	if !had {
		return map[string]any{}, body, false, style, nil
	}

	fields, yamlErr := decodeFields(raw)
	if yamlErr != nil {
		return nil, nil, true, style, &ParseError{Path: path, Line: errorLine(yamlErr), Err: yamlErr}
	}
	return fields, body, true, style, nil
}

func decodeFields(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	// Decode through a node first so duplicate keys and non-mapping roots are
	// rejected with positions instead of last-one-wins semantics.
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 || len(node.Content) == 0 {
		return map[string]any{}, nil
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("front matter must be a mapping, got %s", nodeKindName(root.Kind))
	}
	seen := make(map[string]int, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if prev, dup := seen[key.Value]; dup {
			return nil, fmt.Errorf("duplicate key %q at line %d (first defined at line %d)", key.Value, key.Line, prev)
		}
		seen[key.Value] = key.Line
	}

	var fields map[string]any
	if err := root.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// errorLine locates the failing line within the file. YAML errors report lines
// relative to the block, which begins on line 2 (after the opening delimiter),
// so block line N is file line N+1.
func errorLine(err error) int {
	if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n + 1
		}
	}
	return 2
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

func detectStyle(content []byte) Style {
	newline := "\n"
	for i := 0; i+1 < len(content); i++ {
		if content[i] == '\r' && content[i+1] == '\n' {
			newline = "\r\n"
			break
		}
		if content[i] == '\n' {
			newline = "\n"
			break
		}
	}

	hasTrailingNewline := len(content) > 0 && content[len(content)-1] == '\n'

	return Style{
		Newline:            newline,
		HasTrailingNewline: hasTrailingNewline,
	}
}
