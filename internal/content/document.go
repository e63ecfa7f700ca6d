// Package content defines the in-memory document model: parsed front matter,
// body, and the fields computed later in the build.
package content

import (
	"path"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/util/slug"
)

// Well-known front-matter keys consulted by derived accessors.
const (
	KeyTitle = "title"
	KeySlug  = "slug"
	KeyDate  = "date"
)

var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-`)

// dateLayouts are attempted in order when parsing an explicit date field.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Document is one content unit of the site.
//
// Identity is the source-relative path. Meta and Body are set at parse time;
// Collection is assigned during resolution; OutputPath, Output and Excerpt
// are populated by the render pipeline. After emission a Document is
// read-only by convention.
type Document struct {
	SourcePath string // absolute path on disk (empty for synthetic docs in tests)
	RelPath    string // path relative to the source root, slash-separated
	Meta       Fields
	Body       []byte
	HadMeta    bool // false for static assets (no front-matter block)

	Collection string // primary collection name, empty when ungrouped

	OutputPath string // site-absolute permalink, set during emission
	Output     []byte // rendered content, set during emission
	Excerpt    string // first-paragraph plain text, set during emission
}

// New constructs a Document from a parsed file.
func New(sourcePath, relPath string, fields Fields, body []byte, hadMeta bool) *Document {
	return &Document{
		SourcePath: sourcePath,
		RelPath:    path.Clean(strings.ReplaceAll(relPath, "\\", "/")),
		Meta:       fields,
		Body:       body,
		HadMeta:    hadMeta,
	}
}

// Get returns the metadata value for key, or def when the key is absent.
// It never fails; absent keys are an expected condition.
func (d *Document) Get(key string, def Value) Value {
	if v, ok := d.Meta[key]; ok {
		return v
	}
	return def
}

// Str returns the string value for key, or def when absent or non-string.
func (d *Document) Str(key, def string) string {
	if v, ok := d.Meta[key]; ok {
		if s, isStr := v.Str(); isStr {
			return s
		}
	}
	return def
}

// IsAsset reports whether the document is a static asset (no front matter).
// Assets are copied verbatim and never rendered.
func (d *Document) IsAsset() bool { return !d.HadMeta }

// IsMarkdown reports whether the body should be rendered as Markdown.
func (d *Document) IsMarkdown() bool {
	switch strings.ToLower(path.Ext(d.RelPath)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// Date derives the document date.
//
// An explicit `date` field wins; otherwise a filename prefix of the form
// YYYY-MM-DD- supplies the date. Documents with neither have no date and are
// excluded from date-ordered collection views.
func (d *Document) Date() (time.Time, bool) {
	if v, ok := d.Meta[KeyDate]; ok {
		if s, isStr := v.Str(); isStr {
			for _, layout := range dateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t, true
				}
			}
		}
	}
	if m := datePrefixRe.FindStringSubmatch(d.Filename()); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filename returns the base name of the source path.
func (d *Document) Filename() string { return path.Base(d.RelPath) }

// Stem returns the filename without extension and without a date prefix.
func (d *Document) Stem() string {
	name := d.Filename()
	name = strings.TrimSuffix(name, path.Ext(name))
	return datePrefixRe.ReplaceAllString(name, "")
}

// Title returns the explicit title, defaulting to a slugified form of the
// filename when absent.
func (d *Document) Title() string {
	if t := d.Str(KeyTitle, ""); t != "" {
		return t
	}
	return slug.Make(d.Stem())
}

// Slug returns the URL slug: an explicit `slug` field, else the slugified
// title, else the slugified filename stem.
func (d *Document) Slug() string {
	if s := d.Str(KeySlug, ""); s != "" {
		return slug.Make(s)
	}
	if t := d.Str(KeyTitle, ""); t != "" {
		return slug.Make(t)
	}
	return slug.Make(d.Stem())
}
