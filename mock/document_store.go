package mock

import (
	"context"

	"github.com/weiplanet/docmigrate"
)

var _ docmigrate.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is a mock of docmigrate.DocumentStore. Handles returned by
// WithNamespace share the funcs of their parent.
type DocumentStore struct {
	namespace string

	WithNamespaceFn    func(ns string)
	FindDocumentsFn    func(ctx context.Context, collection string, limit int, after *docmigrate.Document) ([]*docmigrate.Document, error)
	FindDocumentFn     func(ctx context.Context, collection, id string) (*docmigrate.Document, error)
	CountDocumentsFn   func(ctx context.Context, collection string) (int, error)
	CreateDocumentFn   func(ctx context.Context, collection string, d *docmigrate.Document) error
	UpdateDocumentFn   func(ctx context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error)
	CollectionExistsFn func(ctx context.Context, schema, collection string) (bool, error)
	CreateCollectionFn func(ctx context.Context, collection string, attributes []docmigrate.AttributeDef, indexes []docmigrate.IndexDef, opts ...docmigrate.CollectionOption) error
	FindCollectionFn   func(ctx context.Context, collection string) (*docmigrate.Collection, error)
}

// NewDocumentStore returns a mock DocumentStore where every collection
// exists, is empty and accepts updates.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		WithNamespaceFn: func(string) {},
		FindDocumentsFn: func(context.Context, string, int, *docmigrate.Document) ([]*docmigrate.Document, error) {
			return nil, nil
		},
		FindDocumentFn: func(context.Context, string, string) (*docmigrate.Document, error) {
			return nil, nil
		},
		CountDocumentsFn: func(context.Context, string) (int, error) {
			return 0, nil
		},
		CreateDocumentFn: func(context.Context, string, *docmigrate.Document) error {
			return nil
		},
		UpdateDocumentFn: func(_ context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
			return &docmigrate.Document{ID: id, Collection: collection, Fields: fields}, nil
		},
		CollectionExistsFn: func(context.Context, string, string) (bool, error) {
			return true, nil
		},
		CreateCollectionFn: func(context.Context, string, []docmigrate.AttributeDef, []docmigrate.IndexDef, ...docmigrate.CollectionOption) error {
			return nil
		},
		FindCollectionFn: func(_ context.Context, collection string) (*docmigrate.Collection, error) {
			return &docmigrate.Collection{ID: collection, Name: collection}, nil
		},
	}
}

// WithNamespace returns a copy of s scoped to ns.
func (s *DocumentStore) WithNamespace(ns string) docmigrate.DocumentStore {
	s.WithNamespaceFn(ns)
	c := *s
	c.namespace = ns
	return &c
}

// Namespace returns the namespace of the handle.
func (s *DocumentStore) Namespace() string {
	return s.namespace
}

// FindDocuments returns a page of documents.
func (s *DocumentStore) FindDocuments(ctx context.Context, collection string, limit int, after *docmigrate.Document) ([]*docmigrate.Document, error) {
	return s.FindDocumentsFn(ctx, collection, limit, after)
}

// FindDocument returns a single document.
func (s *DocumentStore) FindDocument(ctx context.Context, collection, id string) (*docmigrate.Document, error) {
	return s.FindDocumentFn(ctx, collection, id)
}

// CountDocuments returns the number of documents of a collection.
func (s *DocumentStore) CountDocuments(ctx context.Context, collection string) (int, error) {
	return s.CountDocumentsFn(ctx, collection)
}

// CreateDocument stores a new document.
func (s *DocumentStore) CreateDocument(ctx context.Context, collection string, d *docmigrate.Document) error {
	return s.CreateDocumentFn(ctx, collection, d)
}

// UpdateDocument replaces the fields of a document.
func (s *DocumentStore) UpdateDocument(ctx context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
	return s.UpdateDocumentFn(ctx, collection, id, fields)
}

// CollectionExists reports whether a collection exists.
func (s *DocumentStore) CollectionExists(ctx context.Context, schema, collection string) (bool, error) {
	return s.CollectionExistsFn(ctx, schema, collection)
}

// CreateCollection creates a collection.
func (s *DocumentStore) CreateCollection(ctx context.Context, collection string, attributes []docmigrate.AttributeDef, indexes []docmigrate.IndexDef, opts ...docmigrate.CollectionOption) error {
	return s.CreateCollectionFn(ctx, collection, attributes, indexes, opts...)
}

// FindCollection returns the schema of a collection.
func (s *DocumentStore) FindCollection(ctx context.Context, collection string) (*docmigrate.Collection, error) {
	return s.FindCollectionFn(ctx, collection)
}
