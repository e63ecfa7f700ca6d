// Package permalink computes output paths from a placeholder pattern and a
// document's metadata, and detects aggregate path collisions.
package permalink

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// Placeholder names accepted in a pattern.
const (
	PlaceholderYear       = "year"
	PlaceholderMonth      = "month"
	PlaceholderDay        = "day"
	PlaceholderTitle      = "title"
	PlaceholderSlug       = "slug"
	PlaceholderCollection = "collection"
)

// Pattern is a compiled permalink template. Stateless and shared: one Pattern
// serves every document that inherits it.
type Pattern struct {
	raw    string
	tokens []token
}

type token struct {
	literal     string // set when placeholder is empty
	placeholder string
}

// Compile parses a pattern string such as "/:year/:month/:day/:title/".
// Unknown placeholder names are a configuration error.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}
	rest := raw
	for rest != "" {
		colon := strings.IndexByte(rest, ':')
		if colon < 0 {
			p.tokens = append(p.tokens, token{literal: rest})
			break
		}
		if colon > 0 {
			p.tokens = append(p.tokens, token{literal: rest[:colon]})
		}
		rest = rest[colon+1:]
		end := strings.IndexFunc(rest, func(r rune) bool {
			return !(r >= 'a' && r <= 'z' || r == '_')
		})
		if end < 0 {
			end = len(rest)
		}
		name := rest[:end]
		if !knownPlaceholder(name) {
			return nil, fmt.Errorf("permalink pattern %q: unknown placeholder :%s", raw, name)
		}
		p.tokens = append(p.tokens, token{placeholder: name})
		rest = rest[end:]
	}
	return p, nil
}

func knownPlaceholder(name string) bool {
	switch name {
	case PlaceholderYear, PlaceholderMonth, PlaceholderDay,
		PlaceholderTitle, PlaceholderSlug, PlaceholderCollection:
		return true
	}
	return false
}

// String returns the source pattern.
func (p *Pattern) String() string { return p.raw }

// Expand substitutes every placeholder with the document's value.
//
// Month and day are zero-padded to two digits; title and slug are slugified.
// Every placeholder must resolve to a non-empty string or expansion fails.
// The result always begins with a single separator and never contains two
// consecutive separators.
func (p *Pattern) Expand(doc *content.Document) (string, error) {
	var b strings.Builder
	for _, tok := range p.tokens {
		if tok.placeholder == "" {
			b.WriteString(tok.literal)
			continue
		}
		val, err := p.resolve(tok.placeholder, doc)
		if err != nil {
			return "", err
		}
		b.WriteString(val)
	}
	return normalize(b.String()), nil
}

func (p *Pattern) resolve(name string, doc *content.Document) (string, error) {
	var val string
	switch name {
	case PlaceholderYear, PlaceholderMonth, PlaceholderDay:
		date, ok := doc.Date()
		if !ok {
			return "", fmt.Errorf("pattern %q: document %s has no derivable date for :%s", p.raw, doc.RelPath, name)
		}
		switch name {
		case PlaceholderYear:
			val = fmt.Sprintf("%04d", date.Year())
		case PlaceholderMonth:
			val = fmt.Sprintf("%02d", int(date.Month()))
		case PlaceholderDay:
			val = fmt.Sprintf("%02d", date.Day())
		}
	case PlaceholderTitle, PlaceholderSlug:
		val = doc.Slug()
	case PlaceholderCollection:
		val = doc.Collection
	}
	if val == "" {
		return "", fmt.Errorf("pattern %q: placeholder :%s resolved empty for document %s", p.raw, name, doc.RelPath)
	}
	return val, nil
}

// normalize collapses duplicate separators and forces a single leading one.
func normalize(path string) string {
	trailingSlash := strings.HasSuffix(path, "/")
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	out := "/" + strings.Join(parts, "/")
	if trailingSlash && out != "/" {
		out += "/"
	}
	return out
}
