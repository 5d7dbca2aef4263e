package all

import (
	"context"

	"github.com/weiplanet/docmigrate/migration"
)

// UsersCollection is the configurable collection holding user accounts.
const UsersCollection = "users"

// Migration0002_NormalizeUserEmails lowercases the email of every user. Projects
// whose manifest has no users collection are left as they are.
var Migration0002_NormalizeUserEmails = migration.MigrationFunc(func(ctx context.Context, r *migration.Runner) error {
	if _, ok := r.Manifest().Collection(UsersCollection); !ok {
		return nil
	}

	_, err := r.ForEachDocumentIn(ctx, UsersCollection, migration.LowercaseField("email"))
	return err
})
