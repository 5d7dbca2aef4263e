package migration

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/mock"
)

// newDocs returns n users u001... with sequences 1..n.
func newDocs(collection string, n int) []*docmigrate.Document {
	docs := make([]*docmigrate.Document, 0, n)
	for i := 1; i <= n; i++ {
		docs = append(docs, &docmigrate.Document{
			ID:         fmt.Sprintf("u%03d", i),
			Collection: collection,
			Sequence:   uint64(i),
			Fields: docmigrate.Fields{
				"name":  fmt.Sprintf("user-%03d", i),
				"email": fmt.Sprintf("user-%03d@example.com", i),
			},
		})
	}
	return docs
}

// sliceStore is a mock document store paging over a fixed slice of
// documents and recording the calls it receives.
type sliceStore struct {
	*mock.DocumentStore

	mu      sync.Mutex
	docs    []*docmigrate.Document
	cursors []string
	updates []string
}

func newSliceStore(docs []*docmigrate.Document) *sliceStore {
	s := &sliceStore{
		DocumentStore: mock.NewDocumentStore(),
		docs:          docs,
	}
	s.FindDocumentsFn = func(_ context.Context, collection string, limit int, after *docmigrate.Document) ([]*docmigrate.Document, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		cursor := ""
		start := 0
		if after != nil {
			cursor = after.ID
			start = sort.Search(len(s.docs), func(i int) bool { return s.docs[i].Sequence > after.Sequence })
		}
		s.cursors = append(s.cursors, cursor)

		end := start + limit
		if end > len(s.docs) {
			end = len(s.docs)
		}
		page := make([]*docmigrate.Document, 0, end-start)
		for _, d := range s.docs[start:end] {
			c := *d
			c.Fields = docmigrate.Fields{}
			for k, v := range d.Fields {
				c.Fields[k] = v
			}
			page = append(page, &c)
		}
		return page, nil
	}
	s.CountDocumentsFn = func(context.Context, string) (int, error) {
		return len(s.docs), nil
	}
	s.UpdateDocumentFn = func(_ context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.updates = append(s.updates, id)
		for _, d := range s.docs {
			if d.ID == id {
				d.Fields = fields
				return &docmigrate.Document{ID: id, Collection: collection, Sequence: d.Sequence, Fields: fields}, nil
			}
		}
		return nil, fmt.Errorf("document %s not found", id)
	}
	return s
}

func (s *sliceStore) Updates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]string(nil), s.updates...)
	sort.Strings(out)
	return out
}

func (s *sliceStore) Cursors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cursors...)
}
