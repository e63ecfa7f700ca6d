package site

import (
	"bytes"
	"fmt"
	"html/template"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/paginate"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Collection}}{{if .SiteTitle}} | {{.SiteTitle}}{{end}}</title>
</head>
<body>
<h1>{{.Collection}}</h1>
<ul>
{{range .Entries}}<li><a href="{{.Permalink}}">{{.Title}}</a>{{if .Date}} <time>{{.Date}}</time>{{end}}{{if .Excerpt}}<p>{{.Excerpt}}</p>{{end}}</li>
{{end}}</ul>
<nav>
{{if .PrevLink}}<a rel="prev" href="{{.PrevLink}}">Newer</a>{{end}}
<span>Page {{.Index}} of {{.Total}}</span>
{{if .NextLink}}<a rel="next" href="{{.NextLink}}">Older</a>{{end}}
</nav>
</body>
</html>
`))

type indexEntry struct {
	Title     string
	Permalink string
	Date      string
	Excerpt   string
}

type indexData struct {
	Collection string
	SiteTitle  string
	Index      int
	Total      int
	Entries    []indexEntry
	PrevLink   string
	NextLink   string
}

// indexPagePath returns the site-absolute permalink of a listing page.
// The first page sits at the collection root; later pages under page/N/.
func indexPagePath(collection string, index int) string {
	if index == 1 {
		return fmt.Sprintf("/%s/", collection)
	}
	return fmt.Sprintf("/%s/page/%d/", collection, index)
}

// renderIndexPage renders one listing page for a paginated collection.
// Member documents must already have their permalinks and excerpts set.
func renderIndexPage(page *paginate.Page, site config.SiteConfig) ([]byte, error) {
	data := indexData{
		Collection: page.Collection,
		SiteTitle:  site.Title,
		Index:      page.Index,
		Total:      page.Total,
	}
	if page.Prev != nil {
		data.PrevLink = indexPagePath(page.Collection, page.Prev.Index)
	}
	if page.Next != nil {
		data.NextLink = indexPagePath(page.Collection, page.Next.Index)
	}
	for _, doc := range page.Docs {
		entry := indexEntry{
			Title:     doc.Title(),
			Permalink: doc.OutputPath,
			Excerpt:   doc.Excerpt,
		}
		if d, ok := doc.Date(); ok {
			entry.Date = d.Format("2006-01-02")
		}
		data.Entries = append(data.Entries, entry)
	}

	var out bytes.Buffer
	if err := indexTemplate.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("render index page %s/%d: %w", page.Collection, page.Index, err)
	}
	return out.Bytes(), nil
}
