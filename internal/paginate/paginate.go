// Package paginate partitions an ordered document sequence into fixed-size,
// linked pages.
package paginate

import (
	"fmt"

	"git.home.luguber.info/inful/sitegen/internal/content"
)

// Page is one pagination unit: an order-preserving subsequence of a
// collection. Index is 1-based; Prev and Next are nil at the boundaries.
type Page struct {
	Collection string
	Index      int
	Total      int
	Docs       []*content.Document
	Prev       *Page
	Next       *Page
}

// Paginate splits docs into ceil(len/size) pages preserving order.
//
// An empty input yields zero pages, not one empty page. Paginate is a pure
// function of (sequence, size); it does not copy or own the documents.
func Paginate(collection string, docs []*content.Document, size int) ([]*Page, error) {
	if size < 1 {
		return nil, fmt.Errorf("page size must be positive, got %d", size)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	total := (len(docs) + size - 1) / size
	pages := make([]*Page, 0, total)
	for i := 0; i < total; i++ {
		lo := i * size
		hi := min(lo+size, len(docs))
		pages = append(pages, &Page{
			Collection: collection,
			Index:      i + 1,
			Total:      total,
			Docs:       docs[lo:hi],
		})
	}
	for i, p := range pages {
		if i > 0 {
			p.Prev = pages[i-1]
		}
		if i < len(pages)-1 {
			p.Next = pages[i+1]
		}
	}
	return pages, nil
}
