package migration

import (
	"context"

	"github.com/weiplanet/docmigrate"
)

// PageIterator fetches the documents of a collection one page at a time,
// ordered by sequence. Each call to Next issues exactly one fetch; the
// cursor of the following fetch is taken from the page just received.
// A page shorter than the page size is the last one, even when empty.
//
//	it := NewPageIterator(store, "users", 100)
//	for it.Next(ctx) {
//		process(it.Page())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type PageIterator struct {
	store      docmigrate.DocumentStore
	collection string
	pageSize   int

	cursor  *docmigrate.Document
	next    *docmigrate.Document
	page    []*docmigrate.Document
	done    bool
	err     error
	fetches int
}

// NewPageIterator returns an iterator over collection. A page size below one is set to one.
func NewPageIterator(store docmigrate.DocumentStore, collection string, pageSize int) *PageIterator {
	if pageSize < 1 {
		pageSize = 1
	}
	return &PageIterator{
		store:      store,
		collection: collection,
		pageSize:   pageSize,
	}
}

// Next fetches the next page and reports whether there is one. It returns
// false once the last page was returned or a fetch failed.
func (it *PageIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}

	if err := ctx.Err(); err != nil {
		it.fail(err)
		return false
	}

	after := it.next
	page, err := it.store.FindDocuments(ctx, it.collection, it.pageSize, after)
	it.fetches++
	if err != nil {
		it.fail(err)
		return false
	}

	it.cursor = after
	it.page = page
	if len(page) < it.pageSize {
		it.done = true
		it.next = nil
		return true
	}

	// the cursor is copied so that transforms of the page cannot move it
	last := page[len(page)-1]
	it.next = &docmigrate.Document{
		ID:         last.ID,
		Collection: last.Collection,
		Sequence:   last.Sequence,
	}
	return true
}

func (it *PageIterator) fail(err error) {
	it.err = fetchError(it.collection, err)
	it.page = nil
	it.done = true
}

// Page returns the page fetched by the last call to Next.
func (it *PageIterator) Page() []*docmigrate.Document {
	return it.page
}

// Cursor returns the cursor the current page was fetched with, nil for the first page.
func (it *PageIterator) Cursor() *docmigrate.Document {
	return it.cursor
}

// Err returns the fetch error that stopped the iteration, if any.
func (it *PageIterator) Err() error {
	return it.err
}

// Fetches returns the number of fetches issued so far.
func (it *PageIterator) Fetches() int {
	return it.fetches
}
