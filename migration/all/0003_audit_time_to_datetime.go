package all

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/migration"
)

// Migration0003_AuditTimeToDatetime rewrites audit times stored as unix
// seconds into RFC3339 datetimes.
var Migration0003_AuditTimeToDatetime = migration.MigrationFunc(func(ctx context.Context, r *migration.Runner) error {
	_, err := r.ForEachDocument(ctx, migration.ForCollection(migration.CollectionAudit, unixTimeToDatetime("time")))
	return err
})

func unixTimeToDatetime(field string) migration.TransformFunc {
	return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		var sec int64
		switch v := d.Fields[field].(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field, err)
			}
			sec = n
		case float64:
			sec = int64(v)
		case int64:
			sec = v
		case int:
			sec = int64(v)
		default:
			return d, nil
		}
		d.Set(field, time.Unix(sec, 0).UTC().Format(time.RFC3339Nano))
		return d, nil
	}
}
