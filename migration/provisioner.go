package migration

import (
	"context"

	"github.com/weiplanet/docmigrate"
	"go.uber.org/zap"
)

// Provisioner creates collections that do not exist yet.
type Provisioner struct {
	log    *zap.Logger
	schema string
}

// NewProvisioner returns a provisioner checking existence against schema.
func NewProvisioner(log *zap.Logger, schema string) *Provisioner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{log: log, schema: schema}
}

// Ensure makes sure c exists in the namespace of store. It issues one
// existence check and, only when c is absent, one create. It reports whether c was created.
func (p *Provisioner) Ensure(ctx context.Context, store docmigrate.DocumentStore, c docmigrate.Collection) (bool, error) {
	exists, err := store.CollectionExists(ctx, p.schema, c.ID)
	if err != nil {
		return false, provisionError(c.ID, err)
	}
	if exists {
		return false, nil
	}

	if err := store.CreateCollection(ctx, c.ID, c.Attributes, c.Indexes, docmigrate.WithCollectionName(c.Name)); err != nil {
		return false, provisionError(c.ID, err)
	}

	p.log.Info("Collection created",
		zap.String("namespace", store.Namespace()),
		zap.String("collection", c.ID))
	return true, nil
}
