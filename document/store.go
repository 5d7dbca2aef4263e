// Package document implements docmigrate.DocumentStore on top of a kv.Store.
// Every namespace keeps a catalog of its collections, and every collection
// is a set of buckets: documents keyed by creation sequence, an id index
// and one bucket per unique index.
package document

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"github.com/weiplanet/docmigrate/kv"
	"go.uber.org/zap"
)

var (
	collectionsBucket = []byte("collectionsv1")
)

const (
	documentsBucketSuffix = "documentsv1"
	idIndexBucketSuffix   = "idindexv1"
	uniqueBucketDir       = "unique"
)

var _ docmigrate.DocumentStore = (*Store)(nil)

// Store is a docmigrate.DocumentStore handle scoped to one namespace.
type Store struct {
	kv        kv.Store
	log       *zap.Logger
	namespace string

	IDGenerator func() string
}

// NewStore returns a store without a namespace. Use WithNamespace to get
// a handle that can serve requests.
func NewStore(log *zap.Logger, store kv.Store) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		kv:          store,
		log:         log,
		IDGenerator: uuid.NewString,
	}
}

// WithNamespace returns a copy of the store scoped to ns.
func (s *Store) WithNamespace(ns string) docmigrate.DocumentStore {
	ss := *s
	ss.namespace = ns
	ss.log = s.log.With(zap.String("namespace", ns))
	return &ss
}

// Namespace returns the namespace of the handle.
func (s *Store) Namespace() string {
	return s.namespace
}

// begin checks that the handle has a namespace and the caller an authorizer.
func (s *Store) begin(ctx context.Context, op string) error {
	if s.namespace == "" {
		return &errors.Error{
			Code: errors.EInvalid,
			Op:   "document/" + op,
			Msg:  "document store has no namespace",
		}
	}
	if _, err := icontext.GetAuthorizer(ctx); err != nil {
		return errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+op))
	}
	return nil
}

func catalogKey(ns, collection string) []byte {
	return []byte(path.Join(ns, collection))
}

func documentsBucket(ns, collection string) []byte {
	return []byte(path.Join(ns, collection, documentsBucketSuffix))
}

func idIndexBucket(ns, collection string) []byte {
	return []byte(path.Join(ns, collection, idIndexBucketSuffix))
}

func uniqueBucket(ns, collection, index string) []byte {
	return []byte(path.Join(ns, collection, uniqueBucketDir, index+"v1"))
}

func encodeSequence(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// catalogEntry is the catalog record of a collection.
type catalogEntry struct {
	Collection   docmigrate.Collection `json:"collection"`
	LastSequence uint64                `json:"lastSequence"`
}

func collectionNotFound(op, collection string) error {
	return &errors.Error{
		Code: errors.ENotFound,
		Op:   "document/" + op,
		Msg:  fmt.Sprintf("collection %q not found", collection),
	}
}

func documentNotFound(op, collection, id string) error {
	return &errors.Error{
		Code: errors.ENotFound,
		Op:   "document/" + op,
		Msg:  fmt.Sprintf("document %q not found in collection %q", id, collection),
	}
}

func (s *Store) findCatalogEntry(tx kv.Tx, op, collection string) (*catalogEntry, error) {
	b, err := tx.Bucket(collectionsBucket)
	if kv.IsNotFound(err) {
		return nil, collectionNotFound(op, collection)
	}
	if err != nil {
		return nil, err
	}

	v, err := b.Get(catalogKey(s.namespace, collection))
	if kv.IsNotFound(err) {
		return nil, collectionNotFound(op, collection)
	}
	if err != nil {
		return nil, err
	}

	entry := &catalogEntry{}
	if err := json.Unmarshal(v, entry); err != nil {
		return nil, &errors.Error{
			Code: errors.EInternal,
			Op:   "document/" + op,
			Err:  err,
		}
	}
	return entry, nil
}

func (s *Store) putCatalogEntry(tx kv.Tx, entry *catalogEntry) error {
	v, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	b, err := tx.Bucket(collectionsBucket)
	if err != nil {
		return err
	}
	return b.Put(catalogKey(s.namespace, entry.Collection.ID), v)
}

func decodeDocument(v []byte) (*docmigrate.Document, error) {
	d := &docmigrate.Document{}
	dec := json.NewDecoder(bytes.NewReader(v))
	dec.UseNumber()
	if err := dec.Decode(d); err != nil {
		return nil, &errors.Error{
			Code: errors.EInternal,
			Msg:  "unable to decode stored document",
			Err:  err,
		}
	}
	if d.Fields == nil {
		d.Fields = docmigrate.Fields{}
	}
	return d, nil
}

// FindDocuments returns at most limit documents the caller may read, ordered
// by ascending sequence and starting strictly after the sequence of after.
func (s *Store) FindDocuments(ctx context.Context, collection string, limit int, after *docmigrate.Document) ([]*docmigrate.Document, error) {
	if err := s.begin(ctx, docmigrate.OpFindDocuments); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Op:   "document/" + docmigrate.OpFindDocuments,
			Msg:  "limit must be positive",
		}
	}

	var docs []*docmigrate.Document
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		if _, err := s.findCatalogEntry(tx, docmigrate.OpFindDocuments, collection); err != nil {
			return err
		}

		b, err := tx.Bucket(documentsBucket(s.namespace, collection))
		if err != nil {
			return err
		}

		var (
			seek []byte
			opts []kv.CursorOption
		)
		if after != nil {
			seek = encodeSequence(after.Sequence)
			opts = append(opts, kv.WithCursorSkipFirstItem())
		}

		cur, err := b.ForwardCursor(seek, opts...)
		if err != nil {
			return err
		}

		return kv.WalkCursor(ctx, cur, func(k, v []byte) (bool, error) {
			d, err := decodeDocument(v)
			if err != nil {
				return false, err
			}
			ok, err := authorizer.CanRead(ctx, d)
			if err != nil {
				return false, err
			}
			if ok {
				docs = append(docs, d)
			}
			return len(docs) < limit, nil
		})
	})
	if err != nil {
		return nil, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpFindDocuments))
	}

	return docs, nil
}

func (s *Store) findDocument(tx kv.Tx, op, collection, id string) (*docmigrate.Document, []byte, error) {
	idx, err := tx.Bucket(idIndexBucket(s.namespace, collection))
	if err != nil {
		return nil, nil, err
	}
	seq, err := idx.Get([]byte(id))
	if kv.IsNotFound(err) {
		return nil, nil, documentNotFound(op, collection, id)
	}
	if err != nil {
		return nil, nil, err
	}

	b, err := tx.Bucket(documentsBucket(s.namespace, collection))
	if err != nil {
		return nil, nil, err
	}
	v, err := b.Get(seq)
	if kv.IsNotFound(err) {
		return nil, nil, documentNotFound(op, collection, id)
	}
	if err != nil {
		return nil, nil, err
	}

	d, err := decodeDocument(v)
	if err != nil {
		return nil, nil, err
	}
	return d, append([]byte(nil), seq...), nil
}

// FindDocument returns a single document by id.
func (s *Store) FindDocument(ctx context.Context, collection, id string) (*docmigrate.Document, error) {
	if err := s.begin(ctx, docmigrate.OpFindDocument); err != nil {
		return nil, err
	}

	var d *docmigrate.Document
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		if _, err := s.findCatalogEntry(tx, docmigrate.OpFindDocument, collection); err != nil {
			return err
		}
		doc, _, err := s.findDocument(tx, docmigrate.OpFindDocument, collection, id)
		if err != nil {
			return err
		}
		if err := authorizer.AuthorizeDocument(ctx, docmigrate.ReadAction, doc); err != nil {
			return err
		}
		d = doc
		return nil
	})
	if err != nil {
		return nil, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpFindDocument))
	}
	return d, nil
}

// CountDocuments returns the number of documents of collection the caller may read.
func (s *Store) CountDocuments(ctx context.Context, collection string) (int, error) {
	if err := s.begin(ctx, docmigrate.OpCountDocuments); err != nil {
		return 0, err
	}

	var n int
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		if _, err := s.findCatalogEntry(tx, docmigrate.OpCountDocuments, collection); err != nil {
			return err
		}

		b, err := tx.Bucket(documentsBucket(s.namespace, collection))
		if err != nil {
			return err
		}
		cur, err := b.ForwardCursor(nil)
		if err != nil {
			return err
		}
		return kv.WalkCursor(ctx, cur, func(k, v []byte) (bool, error) {
			d, err := decodeDocument(v)
			if err != nil {
				return false, err
			}
			ok, err := authorizer.CanRead(ctx, d)
			if err != nil {
				return false, err
			}
			if ok {
				n++
			}
			return true, nil
		})
	})
	if err != nil {
		return 0, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCountDocuments))
	}
	return n, nil
}

// CreateDocument validates d against its collection schema and stores it with
// the next sequence of the collection. An empty ID is generated.
func (s *Store) CreateDocument(ctx context.Context, collection string, d *docmigrate.Document) error {
	if err := s.begin(ctx, docmigrate.OpCreateDocument); err != nil {
		return err
	}

	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		entry, err := s.findCatalogEntry(tx, docmigrate.OpCreateDocument, collection)
		if err != nil {
			return err
		}

		if d.ID == "" {
			d.ID = s.IDGenerator()
		}
		if d.Fields == nil {
			d.Fields = docmigrate.Fields{}
		}
		d.Collection = collection

		idx, err := tx.Bucket(idIndexBucket(s.namespace, collection))
		if err != nil {
			return err
		}
		if _, err := idx.Get([]byte(d.ID)); err == nil {
			return &errors.Error{
				Code: errors.EConflict,
				Msg:  fmt.Sprintf("document %q already exists in collection %q", d.ID, collection),
			}
		} else if !kv.IsNotFound(err) {
			return err
		}

		if err := validate(&entry.Collection, d.Fields); err != nil {
			return err
		}

		entry.LastSequence++
		d.Sequence = entry.LastSequence
		seq := encodeSequence(d.Sequence)

		if err := s.putUniqueIndexes(tx, &entry.Collection, d, nil); err != nil {
			return err
		}
		if err := s.putDocument(tx, seq, d); err != nil {
			return err
		}
		if err := idx.Put([]byte(d.ID), seq); err != nil {
			return err
		}
		return s.putCatalogEntry(tx, entry)
	})
	if err != nil {
		return errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCreateDocument))
	}
	return nil
}

func (s *Store) putDocument(tx kv.Tx, seq []byte, d *docmigrate.Document) error {
	v, err := json.Marshal(d)
	if err != nil {
		return &errors.Error{
			Code: errors.EInvalid,
			Msg:  "unable to encode document",
			Err:  err,
		}
	}
	b, err := tx.Bucket(documentsBucket(s.namespace, d.Collection))
	if err != nil {
		return err
	}
	return b.Put(seq, v)
}

// UpdateDocument replaces the fields of the document id. The sequence, the
// permissions and the identity of the document are kept.
func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
	if err := s.begin(ctx, docmigrate.OpUpdateDocument); err != nil {
		return nil, err
	}

	var updated *docmigrate.Document
	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		entry, err := s.findCatalogEntry(tx, docmigrate.OpUpdateDocument, collection)
		if err != nil {
			return err
		}

		prev, seq, err := s.findDocument(tx, docmigrate.OpUpdateDocument, collection, id)
		if err != nil {
			return err
		}
		if err := authorizer.AuthorizeDocument(ctx, docmigrate.UpdateAction, prev); err != nil {
			return err
		}

		if fields == nil {
			fields = docmigrate.Fields{}
		}
		if err := validate(&entry.Collection, fields); err != nil {
			return err
		}

		d := &docmigrate.Document{
			ID:          prev.ID,
			Collection:  prev.Collection,
			Sequence:    prev.Sequence,
			Permissions: prev.Permissions,
			Fields:      fields,
		}
		if err := s.putUniqueIndexes(tx, &entry.Collection, d, prev); err != nil {
			return err
		}
		if err := s.putDocument(tx, seq, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpUpdateDocument))
	}

	s.log.Debug("Document updated", zap.String("collection", collection), zap.String("document", id))
	return updated, nil
}

// CollectionExists reports whether collection is in the catalog of the namespace.
// The schema names the database the namespace lives in; the kv layout keeps a
// single schema per store, so it is only checked for emptiness.
func (s *Store) CollectionExists(ctx context.Context, schema, collection string) (bool, error) {
	if err := s.begin(ctx, docmigrate.OpCollectionExists); err != nil {
		return false, err
	}
	if err := authorizer.AuthorizeSchema(ctx); err != nil {
		return false, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCollectionExists))
	}
	if schema == "" {
		return false, &errors.Error{
			Code: errors.EInvalid,
			Op:   "document/" + docmigrate.OpCollectionExists,
			Msg:  "schema is required",
		}
	}

	var exists bool
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		_, err := s.findCatalogEntry(tx, docmigrate.OpCollectionExists, collection)
		if errors.ErrorCode(err) == errors.ENotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCollectionExists))
	}
	return exists, nil
}

// CreateCollection adds collection to the catalog and creates its buckets.
// It fails with EConflict when the collection already exists.
func (s *Store) CreateCollection(ctx context.Context, collection string, attributes []docmigrate.AttributeDef, indexes []docmigrate.IndexDef, opts ...docmigrate.CollectionOption) error {
	if err := s.begin(ctx, docmigrate.OpCreateCollection); err != nil {
		return err
	}
	if err := authorizer.AuthorizeSchema(ctx); err != nil {
		return errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCreateCollection))
	}

	c := docmigrate.Collection{
		ID:         collection,
		Name:       collection,
		Attributes: attributes,
		Indexes:    indexes,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := validateSchema(&c); err != nil {
		return errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCreateCollection))
	}

	err := s.kv.Update(ctx, func(tx kv.Tx) error {
		_, err := s.findCatalogEntry(tx, docmigrate.OpCreateCollection, collection)
		if err == nil {
			return &errors.Error{
				Code: errors.EConflict,
				Msg:  fmt.Sprintf("collection %q already exists", collection),
			}
		}
		if errors.ErrorCode(err) != errors.ENotFound {
			return err
		}

		buckets := [][]byte{
			documentsBucket(s.namespace, collection),
			idIndexBucket(s.namespace, collection),
		}
		for _, idx := range indexes {
			if idx.Type == docmigrate.IndexUnique {
				buckets = append(buckets, uniqueBucket(s.namespace, collection, idx.ID))
			}
		}
		for _, b := range buckets {
			if _, err := tx.Bucket(b); err != nil {
				return err
			}
		}

		return s.putCatalogEntry(tx, &catalogEntry{Collection: c})
	})
	if err != nil {
		return errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpCreateCollection))
	}

	s.log.Info("Collection created", zap.String("collection", collection))
	return nil
}

// FindCollection returns the schema stored for collection.
func (s *Store) FindCollection(ctx context.Context, collection string) (*docmigrate.Collection, error) {
	if err := s.begin(ctx, docmigrate.OpFindCollection); err != nil {
		return nil, err
	}

	var c *docmigrate.Collection
	err := s.kv.View(ctx, func(tx kv.Tx) error {
		entry, err := s.findCatalogEntry(tx, docmigrate.OpFindCollection, collection)
		if err != nil {
			return err
		}
		c = &entry.Collection
		return nil
	})
	if err != nil {
		return nil, errors.ErrInternalServiceError(err, errors.WithErrorOp("document/"+docmigrate.OpFindCollection))
	}
	return c, nil
}
