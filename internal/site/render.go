package site

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}{{if .SiteTitle}} | {{.SiteTitle}}{{end}}</title>
{{if .Description}}<meta name="description" content="{{.Description}}">{{end}}
</head>
<body>
<article>
<h1>{{.Title}}</h1>
{{if .Date}}<time datetime="{{.DateISO}}">{{.Date}}</time>{{end}}
{{.Content}}
</article>
</body>
</html>
`))

type pageData struct {
	Title       string
	SiteTitle   string
	Description string
	Date        string
	DateISO     string
	Content     template.HTML
}

// renderDocument renders a document body to its final output content.
//
// Markdown bodies run through goldmark and are wrapped in a minimal HTML
// shell; everything else passes through verbatim. Mutating the document's
// computed fields here is the pipeline's one write; the document is
// read-only afterwards.
func renderDocument(doc *content.Document, site config.SiteConfig) error {
	if doc.IsAsset() || !doc.IsMarkdown() {
		doc.Output = doc.Body
		return nil
	}

	var body bytes.Buffer
	if err := goldmark.New().Convert(doc.Body, &body); err != nil {
		return fmt.Errorf("render markdown for %s: %w", doc.RelPath, err)
	}

	data := pageData{
		Title:     doc.Title(),
		SiteTitle: site.Title,
		Content:   template.HTML(body.String()), // #nosec G203 -- author-owned content
	}
	if d, ok := doc.Date(); ok {
		data.Date = d.Format("January 2, 2006")
		data.DateISO = d.Format(time.RFC3339)
	}

	var out bytes.Buffer
	if err := pageTemplate.Execute(&out, data); err != nil {
		return fmt.Errorf("render page shell for %s: %w", doc.RelPath, err)
	}
	doc.Output = out.Bytes()
	doc.Excerpt = extractExcerpt(body.Bytes())
	return nil
}
