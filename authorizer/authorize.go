package authorizer

import (
	"context"
	"fmt"

	"github.com/weiplanet/docmigrate"
	icontext "github.com/weiplanet/docmigrate/context"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
)

func isAllowed(a docmigrate.Authorizer, action docmigrate.Action, d *docmigrate.Document) error {
	if !a.Allowed(action, d.Permissions) {
		return &errors.Error{
			Code: errors.EUnauthorized,
			Msg:  fmt.Sprintf("%s on document %q of collection %q is unauthorized", action, d.ID, d.Collection),
		}
	}
	return nil
}

// AuthorizeDocument checks that the authorizer on ctx may perform action on d.
func AuthorizeDocument(ctx context.Context, action docmigrate.Action, d *docmigrate.Document) error {
	a, err := icontext.GetAuthorizer(ctx)
	if err != nil {
		return err
	}
	return isAllowed(a, action, d)
}

// CanRead reports whether the authorizer on ctx may read d. A missing
// authorizer is reported as an error rather than as a denial.
func CanRead(ctx context.Context, d *docmigrate.Document) (bool, error) {
	a, err := icontext.GetAuthorizer(ctx)
	if err != nil {
		return false, err
	}
	return a.Allowed(docmigrate.ReadAction, d.Permissions), nil
}

// AuthorizeSchema checks that the authorizer on ctx may inspect and change
// collection schemas. Only the system authorizer may.
func AuthorizeSchema(ctx context.Context) error {
	a, err := icontext.GetAuthorizer(ctx)
	if err != nil {
		return err
	}
	if a.Kind() != KindSystem {
		return &errors.Error{
			Code: errors.EUnauthorized,
			Msg:  fmt.Sprintf("schema access is unauthorized for %s authorizer", a.Kind()),
		}
	}
	return nil
}
