package site

import (
	"errors"
	"runtime"
	"sync"

	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/frontmatter"
	"git.home.luguber.info/inful/sitegen/internal/source"
)

// parseAll parses every discovered file on a fixed-size worker pool.
//
// Each file's parse is independent (no shared mutable state), so parsing is
// the only concurrent stage. Results land in index-addressed slots to keep
// document order deterministic regardless of worker scheduling. A parse
// failure for one document never blocks the others; all failures are
// collected and reported together.
func parseAll(files []source.File, workers int) ([]*content.Document, []*frontmatter.ParseError) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*content.Document, len(files))
	parseErrs := make([]*frontmatter.ParseError, len(files))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i], parseErrs[i] = parseOne(files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	docs := make([]*content.Document, 0, len(files))
	var errs []*frontmatter.ParseError
	for i := range files {
		if parseErrs[i] != nil {
			errs = append(errs, parseErrs[i])
			continue
		}
		docs = append(docs, results[i])
	}
	return docs, errs
}

func parseOne(f source.File) (*content.Document, *frontmatter.ParseError) {
	fields, body, had, _, err := frontmatter.Parse(f.RelPath, f.Data)
	if err != nil {
		var pe *frontmatter.ParseError
		if errors.As(err, &pe) {
			return nil, pe
		}
		return nil, &frontmatter.ParseError{Path: f.RelPath, Line: 1, Err: err}
	}
	return content.New(f.Path, f.RelPath, content.FieldsFromAny(fields), body, had), nil
}
