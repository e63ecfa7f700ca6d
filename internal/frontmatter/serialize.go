package frontmatter

import (
	"bytes"
	"sort"

	"gopkg.in/yaml.v3"
)

// Serialize encodes a field mapping into YAML bytes (without delimiters).
//
// Determinism: top-level keys are sorted so that repeated serialization of the
// same mapping is byte-identical. Newlines follow the provided Style
// (defaults to \n). An empty mapping serializes to an empty slice.
func Serialize(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(fields[k]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

// Join reassembles a document from serialized front matter and body.
//
// If had is false, Join returns body as-is.
func Join(metadata []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}

	open := []byte(Delimiter + nl)
	closing := []byte(Delimiter + nl)

	out := make([]byte, 0, len(open)+len(metadata)+len(closing)+len(body))
	out = append(out, open...)
	out = append(out, metadata...)
	out = append(out, closing...)
	out = append(out, body...)
	return out
}
