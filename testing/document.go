package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/document"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap/zaptest"
)

var usersAttributes = []docmigrate.AttributeDef{
	{ID: "name", Type: docmigrate.AttributeString, Size: 64, Required: true},
	{ID: "email", Type: docmigrate.AttributeString, Size: 256},
	{ID: "age", Type: docmigrate.AttributeInteger},
	{ID: "tags", Type: docmigrate.AttributeString, Array: true},
}

var usersIndexes = []docmigrate.IndexDef{
	{ID: "_key_email", Type: docmigrate.IndexUnique, Attributes: []string{"email"}, Orders: []string{docmigrate.OrderAsc}},
	{ID: "_key_name", Type: docmigrate.IndexKey, Attributes: []string{"name"}, Lengths: []int{32}},
}

// DocumentStore runs the docmigrate.DocumentStore conformance tests of the
// kv backed document store against the kv.Store returned by init.
func DocumentStore(init KVStoreInitFunc, t *testing.T) {
	tests := []struct {
		name string
		fn   func(KVStoreInitFunc, *testing.T)
	}{
		{name: "Scope", fn: DocumentScope},
		{name: "Collections", fn: DocumentCollections},
		{name: "Pagination", fn: DocumentPagination},
		{name: "Update", fn: DocumentUpdate},
		{name: "Authorization", fn: DocumentAuthorization},
		{name: "ConcurrentUpdates", fn: DocumentConcurrentUpdates},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(init, t)
		})
	}
}

func systemContext() context.Context {
	return icontext.SetAuthorizer(context.Background(), authorizer.System())
}

func newUsersStore(init KVStoreInitFunc, t *testing.T) (docmigrate.DocumentStore, func()) {
	t.Helper()
	s, done := init(t)
	store := document.NewStore(zaptest.NewLogger(t), s).WithNamespace(docmigrate.NamespaceFor("p1"))
	if err := store.CreateCollection(systemContext(), "users", usersAttributes, usersIndexes); err != nil {
		done()
		t.Fatalf("failed to create users collection: %v", err)
	}
	return store, done
}

// MustCreateDocuments creates count users named user-001... with ids u001...
func MustCreateDocuments(ctx context.Context, t *testing.T, store docmigrate.DocumentStore, collection string, count int) []*docmigrate.Document {
	t.Helper()
	docs := make([]*docmigrate.Document, 0, count)
	for i := 1; i <= count; i++ {
		d := &docmigrate.Document{
			ID:          fmt.Sprintf("u%03d", i),
			Permissions: []string{docmigrate.Permission(docmigrate.ReadAction, docmigrate.RoleAny)},
			Fields: docmigrate.Fields{
				"name":  fmt.Sprintf("user-%03d", i),
				"email": fmt.Sprintf("USER-%03d@example.com", i),
			},
		}
		if err := store.CreateDocument(ctx, collection, d); err != nil {
			t.Fatalf("failed to create document %d: %v", i, err)
		}
		docs = append(docs, d)
	}
	return docs
}

// DocumentScope tests that calls require a namespace and an authorizer.
func DocumentScope(init KVStoreInitFunc, t *testing.T) {
	s, done := init(t)
	defer done()

	unscoped := document.NewStore(zaptest.NewLogger(t), s)
	_, err := unscoped.CountDocuments(systemContext(), "users")
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	scoped := unscoped.WithNamespace("_p1")
	require.Equal(t, "_p1", scoped.Namespace())
	require.Equal(t, "", unscoped.Namespace())

	_, err = scoped.CollectionExists(context.Background(), "docmigrate", "users")
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	_, err = scoped.CountDocuments(context.Background(), "users")
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))
}

// DocumentCollections tests collection provisioning and namespace isolation.
func DocumentCollections(init KVStoreInitFunc, t *testing.T) {
	s, done := init(t)
	defer done()
	ctx := systemContext()

	base := document.NewStore(zaptest.NewLogger(t), s)
	p1 := base.WithNamespace("_p1")
	p2 := base.WithNamespace("_p2")

	exists, err := p1.CollectionExists(ctx, "docmigrate", "users")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, p1.CreateCollection(ctx, "users", usersAttributes, usersIndexes))

	exists, err = p1.CollectionExists(ctx, "docmigrate", "users")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = p2.CollectionExists(ctx, "docmigrate", "users")
	require.NoError(t, err)
	require.False(t, exists, "collections must not leak across namespaces")

	c, err := p1.FindCollection(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, "users", c.Name, "the name defaults to the id")

	require.NoError(t, p1.CreateCollection(ctx, "teams", nil, nil, docmigrate.WithCollectionName("Teams")))
	c, err = p1.FindCollection(ctx, "teams")
	require.NoError(t, err)
	require.Equal(t, "Teams", c.Name)

	_, err = p2.FindCollection(ctx, "teams")
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	err = p1.CreateCollection(ctx, "users", usersAttributes, usersIndexes)
	require.Equal(t, errors.EConflict, errors.ErrorCode(err))
	require.Equal(t, "document/CreateCollection", errors.ErrorOp(err))

	err = p1.CreateCollection(ctx, "broken", []docmigrate.AttributeDef{{ID: "x", Type: "blob"}}, nil)
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	err = p1.CreateCollection(ctx, "broken", usersAttributes, []docmigrate.IndexDef{
		{ID: "_key_missing", Type: docmigrate.IndexKey, Attributes: []string{"missing"}},
	})
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	userCtx := icontext.SetAuthorizer(context.Background(), authorizer.NewRoles("user:1"))
	err = p1.CreateCollection(userCtx, "other", nil, nil)
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	_, err = p2.CountDocuments(ctx, "users")
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

// DocumentPagination tests sequence ordering and cursor pages.
func DocumentPagination(init KVStoreInitFunc, t *testing.T) {
	store, done := newUsersStore(init, t)
	defer done()
	ctx := systemContext()

	created := MustCreateDocuments(ctx, t, store, "users", 25)
	for i, d := range created {
		require.Equal(t, uint64(i+1), d.Sequence)
		require.Equal(t, "users", d.Collection)
	}

	n, err := store.CountDocuments(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, 25, n)

	var (
		seen   []string
		cursor *docmigrate.Document
		sizes  []int
	)
	for {
		page, err := store.FindDocuments(ctx, "users", 10, cursor)
		require.NoError(t, err)
		sizes = append(sizes, len(page))
		for _, d := range page {
			seen = append(seen, d.ID)
		}
		if len(page) < 10 {
			break
		}
		cursor = page[len(page)-1]
	}
	require.Equal(t, []int{10, 10, 5}, sizes)
	require.Len(t, seen, 25)
	for i, id := range seen {
		require.Equal(t, created[i].ID, id)
	}

	d := &docmigrate.Document{Fields: docmigrate.Fields{"name": "generated"}}
	require.NoError(t, store.CreateDocument(ctx, "users", d))
	require.NotEmpty(t, d.ID)
	require.Equal(t, uint64(26), d.Sequence)

	err = store.CreateDocument(ctx, "users", &docmigrate.Document{ID: "u001", Fields: docmigrate.Fields{"name": "dup"}})
	require.Equal(t, errors.EConflict, errors.ErrorCode(err))

	_, err = store.FindDocuments(ctx, "users", 0, nil)
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	_, err = store.FindDocuments(ctx, "missing", 10, nil)
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))
}

// DocumentUpdate tests field replacement, validation and unique indexes.
func DocumentUpdate(init KVStoreInitFunc, t *testing.T) {
	store, done := newUsersStore(init, t)
	defer done()
	ctx := systemContext()

	MustCreateDocuments(ctx, t, store, "users", 3)

	got, err := store.UpdateDocument(ctx, "users", "u002", docmigrate.Fields{
		"name":  "user-002",
		"email": "user-002@example.com",
		"age":   36,
		"tags":  []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Equal(t, "u002", got.ID)
	require.Equal(t, "users", got.Collection)
	require.Equal(t, uint64(2), got.Sequence)

	found, err := store.FindDocument(ctx, "users", "u002")
	require.NoError(t, err)
	want := docmigrate.Fields{
		"name":  "user-002",
		"email": "user-002@example.com",
		"age":   "36",
		"tags":  []interface{}{"a", "b"},
	}
	if diff := cmp.Diff(want, stringifyNumbers(found.Fields)); diff != "" {
		t.Fatalf("unexpected stored fields (-want +got):\n%s", diff)
	}
	require.Equal(t, got.Permissions, found.Permissions)

	tests := []struct {
		name   string
		id     string
		fields docmigrate.Fields
		code   string
	}{
		{
			name:   "missing required attribute",
			id:     "u001",
			fields: docmigrate.Fields{"email": "x@example.com"},
			code:   errors.EInvalid,
		},
		{
			name:   "wrong type",
			id:     "u001",
			fields: docmigrate.Fields{"name": "user-001", "age": "old"},
			code:   errors.EInvalid,
		},
		{
			name:   "fractional integer",
			id:     "u001",
			fields: docmigrate.Fields{"name": "user-001", "age": 1.5},
			code:   errors.EInvalid,
		},
		{
			name:   "unique index conflict",
			id:     "u001",
			fields: docmigrate.Fields{"name": "user-001", "email": "user-002@example.com"},
			code:   errors.EConflict,
		},
		{
			name:   "unknown document",
			id:     "u404",
			fields: docmigrate.Fields{"name": "nobody"},
			code:   errors.ENotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.UpdateDocument(ctx, "users", tt.id, tt.fields)
			require.Equal(t, tt.code, errors.ErrorCode(err))
			require.Equal(t, "document/UpdateDocument", errors.ErrorOp(err))
		})
	}

	// the previous unique value is released when a document moves away from it
	_, err = store.UpdateDocument(ctx, "users", "u002", docmigrate.Fields{"name": "user-002", "email": "moved@example.com"})
	require.NoError(t, err)
	_, err = store.UpdateDocument(ctx, "users", "u001", docmigrate.Fields{"name": "user-001", "email": "user-002@example.com"})
	require.NoError(t, err)

	unchanged, err := store.FindDocument(ctx, "users", "u003")
	require.NoError(t, err)
	require.Equal(t, "USER-003@example.com", unchanged.Fields["email"])
}

func stringifyNumbers(fields docmigrate.Fields) docmigrate.Fields {
	out := docmigrate.Fields{}
	for k, v := range fields {
		if s, ok := v.(fmt.Stringer); ok {
			out[k] = s.String()
			continue
		}
		out[k] = v
	}
	return out
}

// DocumentAuthorization tests that document permissions are enforced for
// callers other than the system.
func DocumentAuthorization(init KVStoreInitFunc, t *testing.T) {
	store, done := newUsersStore(init, t)
	defer done()
	ctx := systemContext()

	docs := []*docmigrate.Document{
		{ID: "public", Permissions: []string{docmigrate.Permission(docmigrate.ReadAction, docmigrate.RoleAny)}},
		{ID: "mine", Permissions: []string{
			docmigrate.Permission(docmigrate.ReadAction, "user:1"),
			docmigrate.Permission(docmigrate.UpdateAction, "user:1"),
		}},
		{ID: "private"},
	}
	for _, d := range docs {
		d.Fields = docmigrate.Fields{"name": d.ID}
		require.NoError(t, store.CreateDocument(ctx, "users", d))
	}

	userCtx := icontext.SetAuthorizer(context.Background(), authorizer.NewRoles("user:1"))

	page, err := store.FindDocuments(userCtx, "users", 10, nil)
	require.NoError(t, err)
	var ids []string
	for _, d := range page {
		ids = append(ids, d.ID)
	}
	require.Equal(t, []string{"public", "mine"}, ids)

	n, err := store.CountDocuments(userCtx, "users")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = store.FindDocument(userCtx, "users", "private")
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	_, err = store.UpdateDocument(userCtx, "users", "public", docmigrate.Fields{"name": "changed"})
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	_, err = store.UpdateDocument(userCtx, "users", "mine", docmigrate.Fields{"name": "changed"})
	require.NoError(t, err)

	n, err = store.CountDocuments(ctx, "users")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	_, err = store.UpdateDocument(ctx, "users", "private", docmigrate.Fields{"name": "changed"})
	require.NoError(t, err)
}

// DocumentConcurrentUpdates tests that concurrent updates of distinct
// documents are all applied.
func DocumentConcurrentUpdates(init KVStoreInitFunc, t *testing.T) {
	store, done := newUsersStore(init, t)
	defer done()
	ctx := systemContext()

	docs := MustCreateDocuments(ctx, t, store, "users", 20)

	var wg sync.WaitGroup
	errs := make([]error, len(docs))
	for i, d := range docs {
		wg.Add(1)
		go func(i int, d *docmigrate.Document) {
			defer wg.Done()
			_, errs[i] = store.UpdateDocument(ctx, "users", d.ID, docmigrate.Fields{
				"name":  d.Fields["name"],
				"email": fmt.Sprintf("user-%03d@example.com", i+1),
			})
		}(i, d)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	page, err := store.FindDocuments(ctx, "users", 100, nil)
	require.NoError(t, err)
	require.Len(t, page, 20)
	for i, d := range page {
		require.Equal(t, fmt.Sprintf("user-%03d@example.com", i+1), d.Fields["email"])
	}
}
