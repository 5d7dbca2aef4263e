package bolt_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/document"
	"go.uber.org/zap/zaptest"
)

func TestKVStore_Collect(t *testing.T) {
	s, closeFn, err := NewTestKVStore(t)
	require.NoError(t, err)
	defer closeFn()

	ctx := icontext.SetAuthorizer(context.Background(), authorizer.System())
	store := document.NewStore(zaptest.NewLogger(t), s)
	for _, p := range []string{"p1", "p2"} {
		scoped := store.WithNamespace(docmigrate.NamespaceFor(p))
		require.NoError(t, scoped.CreateCollection(ctx, "users", []docmigrate.AttributeDef{
			{ID: "email", Type: docmigrate.AttributeString},
		}, nil))
	}

	expected := `
# HELP docmigrate_collections_total Number of collections in the document catalog, across namespaces
# TYPE docmigrate_collections_total gauge
docmigrate_collections_total 2
`
	require.NoError(t, testutil.CollectAndCompare(s, strings.NewReader(expected), "docmigrate_collections_total"))
	require.Equal(t, 3, testutil.CollectAndCount(s))
}
