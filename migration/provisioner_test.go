package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/document"
	"github.com/weiplanet/docmigrate/inmem"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"github.com/weiplanet/docmigrate/mock"
	"go.uber.org/zap/zaptest"
)

func TestProvisioner_Ensure(t *testing.T) {
	abuse, ok := mustDefaultManifest(t).Collection(CollectionAbuse)
	require.True(t, ok)

	tests := []struct {
		name      string
		exists    bool
		existsErr error
		createErr error
		created   bool
		creates   int
		wantErr   bool
	}{
		{name: "existing collection is left alone", exists: true},
		{name: "missing collection is created", created: true, creates: 1},
		{name: "existence check failure", existsErr: errors.New("unavailable"), wantErr: true},
		{
			name:      "create failure is not retried",
			createErr: &ierrors.Error{Code: ierrors.EConflict, Msg: "collection already exists"},
			creates:   1,
			wantErr:   true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				checks  int
				creates int
			)
			store := mock.NewDocumentStore()
			store.CollectionExistsFn = func(_ context.Context, schema, collection string) (bool, error) {
				checks++
				assert.Equal(t, "tenant", schema)
				assert.Equal(t, CollectionAbuse, collection)
				return tt.exists, tt.existsErr
			}
			store.CreateCollectionFn = func(_ context.Context, collection string, attributes []docmigrate.AttributeDef, indexes []docmigrate.IndexDef, opts ...docmigrate.CollectionOption) error {
				creates++
				assert.Equal(t, abuse.Attributes, attributes)
				assert.Equal(t, abuse.Indexes, indexes)
				c := docmigrate.Collection{ID: collection}
				for _, opt := range opts {
					opt(&c)
				}
				assert.Equal(t, abuse.Name, c.Name)
				return tt.createErr
			}

			created, err := NewProvisioner(zaptest.NewLogger(t), "tenant").Ensure(context.Background(), store, abuse)
			assert.Equal(t, 1, checks)
			assert.Equal(t, tt.creates, creates)
			assert.Equal(t, tt.created, created)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, OpProvision, ierrors.ErrorOp(err))
			assert.True(t, IsFatal(err))
		})
	}
}

func TestProvisioner_Ensure_DocumentStore(t *testing.T) {
	ctx := icontext.SetAuthorizer(context.Background(), authorizer.System())
	store := document.NewStore(zaptest.NewLogger(t), inmem.NewKVStore()).WithNamespace(docmigrate.NamespaceFor("p1"))
	audit, _ := mustDefaultManifest(t).Collection(CollectionAudit)

	p := NewProvisioner(zaptest.NewLogger(t), DefaultSchema)
	created, err := p.Ensure(ctx, store, audit)
	require.NoError(t, err)
	require.True(t, created)

	stored, err := store.FindCollection(ctx, audit.ID)
	require.NoError(t, err)
	assert.Equal(t, audit.Name, stored.Name)
	assert.Equal(t, audit.Attributes, stored.Attributes)

	created, err = p.Ensure(ctx, store, audit)
	require.NoError(t, err)
	require.False(t, created, "a second ensure is a no-op")

	// the existence check of another provisioner raced with ours
	err = store.CreateCollection(ctx, audit.ID, audit.Attributes, audit.Indexes)
	require.Error(t, err)
	require.Equal(t, ierrors.EConflict, ierrors.ErrorCode(err))
}

func mustDefaultManifest(t *testing.T, configurable ...docmigrate.Collection) *Manifest {
	t.Helper()
	m, err := DefaultManifest(configurable...)
	require.NoError(t, err)
	return m
}
