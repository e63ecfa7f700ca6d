package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/collections"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/source"
)

// DiscoverCmd implements the 'discover' command: walk, parse and resolve
// without emitting, so content problems surface before a full build.
type DiscoverCmd struct {
	Collection string `short:"C" help:"Only list documents of this collection"`
}

func (d *DiscoverCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	ctx := context.Background()
	srcRoot, err := resolveRoot(ctx, cfg)
	if err != nil {
		return err
	}

	files, err := source.NewWalker(srcRoot, cfg.Source.Exclude).Walk()
	if err != nil {
		return err
	}

	var docs []*content.Document
	for _, f := range files {
		fields, body, had, _, parseErr := frontmatter.Parse(f.RelPath, f.Data)
		if parseErr != nil {
			fmt.Printf("ERROR  %v\n", parseErr)
			continue
		}
		docs = append(docs, content.New(f.Path, f.RelPath, content.FieldsFromAny(fields), body, had))
	}

	set, err := collections.Resolve(docs, cfg)
	if err != nil {
		return err
	}

	for _, col := range set.Collections {
		if d.Collection != "" && col.Name != d.Collection {
			continue
		}
		fmt.Printf("collection %s (%d document(s))\n", col.Name, len(col.Docs))
		for _, doc := range col.Docs {
			if date, ok := doc.Date(); ok {
				fmt.Printf("  %s  %s  %q\n", date.Format("2006-01-02"), doc.RelPath, doc.Title())
			} else {
				fmt.Printf("  %s  %q\n", doc.RelPath, doc.Title())
			}
		}
		for _, doc := range col.Dateless {
			fmt.Printf("  (no date)  %s  %q\n", doc.RelPath, doc.Title())
		}
	}
	if d.Collection == "" {
		fmt.Printf("pages (%d)\n", len(set.Pages))
		for _, doc := range set.Pages {
			fmt.Printf("  %s\n", doc.RelPath)
		}
	}
	return nil
}
