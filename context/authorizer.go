package context

import (
	"context"

	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
)

type contextKey string

const (
	authorizerCtxKey = contextKey("docmigrate/authorizer/v1")
)

// SetAuthorizer sets an authorizer on context.
func SetAuthorizer(ctx context.Context, a docmigrate.Authorizer) context.Context {
	return context.WithValue(ctx, authorizerCtxKey, a)
}

// GetAuthorizer retrieves an authorizer from context.
func GetAuthorizer(ctx context.Context) (docmigrate.Authorizer, error) {
	a, ok := ctx.Value(authorizerCtxKey).(docmigrate.Authorizer)
	if !ok || a == nil {
		return nil, &errors.Error{
			Msg:  "authorizer not found on context",
			Code: errors.EUnauthorized,
		}
	}

	return a, nil
}
