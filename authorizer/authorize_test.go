package authorizer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
)

func TestAuthorizeDocument(t *testing.T) {
	doc := &docmigrate.Document{
		ID:         "u1",
		Collection: "users",
		Permissions: []string{
			docmigrate.Permission(docmigrate.ReadAction, docmigrate.RoleAny),
			docmigrate.Permission(docmigrate.UpdateAction, "user:u1"),
		},
	}

	tests := []struct {
		name   string
		auth   docmigrate.Authorizer
		action docmigrate.Action
		code   string
	}{
		{
			name:   "system may update",
			auth:   authorizer.System(),
			action: docmigrate.UpdateAction,
		},
		{
			name:   "any role may read",
			auth:   authorizer.NewRoles("user:u2"),
			action: docmigrate.ReadAction,
		},
		{
			name:   "owner may update",
			auth:   authorizer.NewRoles("user:u1"),
			action: docmigrate.UpdateAction,
		},
		{
			name:   "other user may not update",
			auth:   authorizer.NewRoles("user:u2"),
			action: docmigrate.UpdateAction,
			code:   errors.EUnauthorized,
		},
		{
			name:   "no authorizer",
			action: docmigrate.ReadAction,
			code:   errors.EUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.auth != nil {
				ctx = icontext.SetAuthorizer(ctx, tt.auth)
			}

			err := authorizer.AuthorizeDocument(ctx, tt.action, doc)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.code, errors.ErrorCode(err))
		})
	}
}

func TestAuthorizeSchema(t *testing.T) {
	ctx := icontext.SetAuthorizer(context.Background(), authorizer.System())
	require.NoError(t, authorizer.AuthorizeSchema(ctx))

	ctx = icontext.SetAuthorizer(context.Background(), authorizer.NewRoles("user:u1"))
	err := authorizer.AuthorizeSchema(ctx)
	require.Equal(t, errors.EUnauthorized, errors.ErrorCode(err))
}
