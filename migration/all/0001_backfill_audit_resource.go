package all

import (
	"context"

	"github.com/weiplanet/docmigrate/migration"
)

// Migration0001_BackfillAuditResource provisions the abuse collection that
// appeared in 0.11 and sets an empty resource on audit entries recorded
// before the attribute existed.
var Migration0001_BackfillAuditResource = migration.MigrationFunc(func(ctx context.Context, r *migration.Runner) error {
	if err := r.CreateCollection(ctx, migration.CollectionAbuse, ""); err != nil {
		return err
	}

	_, err := r.ForEachDocument(ctx, migration.ForCollection(migration.CollectionAudit,
		migration.SetDefault("resource", ""),
	))
	return err
})
