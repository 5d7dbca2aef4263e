package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
)

func TestDefaultManifest(t *testing.T) {
	m, err := DefaultManifest(
		docmigrate.Collection{ID: "users", Name: "Users", Traverse: true},
		docmigrate.Collection{ID: "teams", Name: "Teams"},
	)
	require.NoError(t, err)

	var ids []string
	for _, c := range m.Collections() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{CollectionMetadata, CollectionAudit, CollectionAbuse, "users", "teams"}, ids)

	var traversed []string
	for _, c := range m.Traversed() {
		traversed = append(traversed, c.ID)
	}
	assert.Equal(t, []string{CollectionAudit, "users"}, traversed)

	c, ok := m.Collection(CollectionAbuse)
	require.True(t, ok)
	assert.True(t, c.System)
	_, ok = m.Collection("missing")
	assert.False(t, ok)
}

func TestNewManifest_Invalid(t *testing.T) {
	_, err := DefaultManifest(docmigrate.Collection{ID: CollectionAudit})
	require.Error(t, err)
	assert.Equal(t, ierrors.EInvalid, ierrors.ErrorCode(err))

	_, err = NewManifest(nil, []docmigrate.Collection{{Name: "nameless"}})
	require.Error(t, err)
	assert.Equal(t, ierrors.EInvalid, ierrors.ErrorCode(err))
}

func TestSystemCollections_AreFresh(t *testing.T) {
	a := SystemCollections()
	a[0].Name = "changed"
	assert.Equal(t, "Metadata", SystemCollections()[0].Name)
}
