// Package collections groups parsed documents into named collections by path
// prefix, merges default attributes, and fixes a deterministic member order.
package collections

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// Collection is a named, ordered grouping of documents.
type Collection struct {
	Name     string
	Prefix   string
	Config   *config.CollectionConfig
	Docs     []*content.Document // frozen after Resolve returns
	Dateless []*content.Document // members excluded from the date-ordered view
}

// Set is the result of resolving the full document set. Membership is
// bidirectionally consistent: every member's Collection field names the
// collection that lists it.
type Set struct {
	Collections []*Collection       // declaration order
	Pages       []*content.Document // assets and documents matching no collection, discovery order
	byName      map[string]*Collection
}

// Get returns the named collection, or nil.
func (s *Set) Get(name string) *Collection {
	return s.byName[name]
}

// AmbiguousDoc records one document matched by two equally specific prefixes.
type AmbiguousDoc struct {
	Path        string
	Collections []string
}

// AmbiguityError is a global, fatal resolution failure listing every
// ambiguous document, not just the first.
type AmbiguityError struct {
	Docs []AmbiguousDoc
}

func (e *AmbiguityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d document(s) match multiple equally specific collection prefixes:", len(e.Docs))
	for _, d := range e.Docs {
		fmt.Fprintf(&b, " %s -> [%s]", d.Path, strings.Join(d.Collections, ", "))
	}
	return b.String()
}

// Resolve assigns every document to at most one collection. Static assets
// (no front matter) always resolve as ungrouped pages.
//
// Precedence is deterministic: the longest matching prefix wins, and
// collections are considered in declaration order. A document matched by two
// equally specific prefixes is ambiguous and collected into an
// AmbiguityError. Resolve requires the complete document set because the
// ambiguity check is global.
func Resolve(docs []*content.Document, cfg *config.Config) (*Set, error) {
	set := &Set{byName: make(map[string]*Collection, len(cfg.Collections))}
	for i := range cfg.Collections {
		cc := &cfg.Collections[i]
		col := &Collection{Name: cc.Name, Prefix: cc.Prefix, Config: cc}
		set.Collections = append(set.Collections, col)
		set.byName[cc.Name] = col
	}

	var ambiguous []AmbiguousDoc
	for _, doc := range docs {
		// Assets are copied verbatim and never join a collection, even when
		// they sit under a collection prefix.
		if doc.IsAsset() {
			set.Pages = append(set.Pages, doc)
			continue
		}
		matches := matchPrefixes(doc.RelPath, set.Collections)
		switch len(matches) {
		case 0:
			set.Pages = append(set.Pages, doc)
			continue
		case 1:
		default:
			names := make([]string, len(matches))
			for i, m := range matches {
				names[i] = m.Name
			}
			ambiguous = append(ambiguous, AmbiguousDoc{Path: doc.RelPath, Collections: names})
			continue
		}

		col := matches[0]
		doc.Collection = col.Name
		if len(col.Config.Defaults) > 0 {
			doc.Meta = content.Merge(content.FieldsFromAny(col.Config.Defaults), doc.Meta)
		}
		col.Docs = append(col.Docs, doc)
	}

	if len(ambiguous) > 0 {
		return nil, &AmbiguityError{Docs: ambiguous}
	}

	for _, col := range set.Collections {
		sortMembers(col)
	}
	return set, nil
}

// matchPrefixes returns the most specific matching collections for relPath,
// in declaration order. More than one result means the document is ambiguous.
func matchPrefixes(relPath string, cols []*Collection) []*Collection {
	best := -1
	var out []*Collection
	for _, col := range cols {
		if !underPrefix(relPath, col.Prefix) {
			continue
		}
		switch n := len(col.Prefix); {
		case n > best:
			best = n
			out = append(out[:0], col)
		case n == best:
			out = append(out, col)
		}
	}
	return out
}

// underPrefix matches whole path segments: prefix "post" does not claim
// "posts/a.md".
func underPrefix(relPath, prefix string) bool {
	if prefix == "" {
		return false
	}
	return relPath == prefix || strings.HasPrefix(relPath, prefix+"/")
}

// sortMembers fixes the member order of a finalized collection.
//
// Date-sorted collections order by derived date descending with path
// ascending as tie-breaker; members without a derivable date are moved to
// the Dateless list with a warning. Other collections keep discovery order.
func sortMembers(col *Collection) {
	if !col.Config.DateSorted() {
		return
	}

	dated := col.Docs[:0]
	for _, doc := range col.Docs {
		if _, ok := doc.Date(); ok {
			dated = append(dated, doc)
			continue
		}
		col.Dateless = append(col.Dateless, doc)
		slog.Warn("Document has no derivable date, excluded from date-ordered collection",
			logfields.Collection(col.Name), logfields.Path(doc.RelPath))
	}
	col.Docs = dated

	sort.SliceStable(col.Docs, func(i, j int) bool {
		di, _ := col.Docs[i].Date()
		dj, _ := col.Docs[j].Date()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return col.Docs[i].RelPath < col.Docs[j].RelPath
	})
}
