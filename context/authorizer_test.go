package context_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
)

func TestGetAuthorizer(t *testing.T) {
	ctx := context.Background()

	_, err := icontext.GetAuthorizer(ctx)
	require.Error(t, err)
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))

	ctx = icontext.SetAuthorizer(ctx, authorizer.System())
	a, err := icontext.GetAuthorizer(ctx)
	require.NoError(t, err)
	require.Equal(t, authorizer.KindSystem, a.Kind())
}
