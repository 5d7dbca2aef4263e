package docmigrate

import (
	"context"
)

// Fields is the field map of a document. Values are JSON-like: nil, bool,
// numbers, string, []interface{} and map[string]interface{}.
type Fields map[string]interface{}

// Document is one record of a collection. Its identity is (Collection, ID).
type Document struct {
	ID          string   `json:"$id"`
	Collection  string   `json:"$collection"`
	Sequence    uint64   `json:"$sequence"`
	Permissions []string `json:"$permissions,omitempty"`
	Fields      Fields   `json:"fields"`
}

// Get returns the value of a field.
func (d *Document) Get(field string) (interface{}, bool) {
	v, ok := d.Fields[field]
	return v, ok
}

// Set sets the value of a field.
func (d *Document) Set(field string, v interface{}) *Document {
	if d.Fields == nil {
		d.Fields = Fields{}
	}
	d.Fields[field] = v
	return d
}

// ops for document store errors and logs.
const (
	OpFindDocuments    = "FindDocuments"
	OpFindDocument     = "FindDocument"
	OpCountDocuments   = "CountDocuments"
	OpCreateDocument   = "CreateDocument"
	OpUpdateDocument   = "UpdateDocument"
	OpCollectionExists = "CollectionExists"
	OpCreateCollection = "CreateCollection"
	OpFindCollection   = "FindCollection"
)

// DocumentStore is the tenant document store consumed by migrations.
// All calls are scoped to the namespace of the handle.
type DocumentStore interface {
	// WithNamespace returns a handle scoped to the namespace ns.
	WithNamespace(ns string) DocumentStore

	// Namespace returns the namespace of the handle.
	Namespace() string

	// FindDocuments returns at most limit documents of collection ordered by
	// ascending sequence, starting strictly after the document after when it is not nil.
	FindDocuments(ctx context.Context, collection string, limit int, after *Document) ([]*Document, error)

	// FindDocument returns a single document by id.
	FindDocument(ctx context.Context, collection, id string) (*Document, error)

	// CountDocuments returns the number of documents in collection.
	CountDocuments(ctx context.Context, collection string) (int, error)

	// CreateDocument stores a new document and sets its ID when empty and its Sequence.
	CreateDocument(ctx context.Context, collection string, d *Document) error

	// UpdateDocument replaces the fields of a document and returns the stored document.
	UpdateDocument(ctx context.Context, collection, id string, fields Fields) (*Document, error)

	// CollectionExists reports whether collection exists in the namespace schema.
	CollectionExists(ctx context.Context, schema, collection string) (bool, error)

	// CreateCollection creates collection with its attributes and indexes.
	CreateCollection(ctx context.Context, collection string, attributes []AttributeDef, indexes []IndexDef, opts ...CollectionOption) error

	// FindCollection returns the schema stored for collection.
	FindCollection(ctx context.Context, collection string) (*Collection, error)
}
