package migration

import (
	"context"
	"fmt"

	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/change"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status is the outcome of one document of a page.
type Status int

const (
	// StatusSkipped means the transform left the document unchanged and no write was issued.
	StatusSkipped Status = iota
	// StatusUpdated means the transformed document was written.
	StatusUpdated
	// StatusFailed means the transform or the write failed.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusUpdated:
		return "updated"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Outcome is the result of migrating one document.
type Outcome struct {
	// Document is the document as it was fetched, or as it was stored when
	// Status is StatusUpdated.
	Document *docmigrate.Document
	Status   Status
	Err      error
}

// TransformFunc returns the new version of a document. It may modify d and
// return it. The identity of the returned document must be the identity of d.
type TransformFunc func(ctx context.Context, d *docmigrate.Document) (*docmigrate.Document, error)

// Fanout transforms and persists the documents of a page concurrently.
type Fanout struct {
	log   *zap.Logger
	limit int
}

// NewFanout returns a fanout running at most limit units at once, or one
// unit per document when limit is not positive.
func NewFanout(log *zap.Logger, limit int) *Fanout {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fanout{log: log, limit: limit}
}

// Run migrates every document of page and returns once all units completed.
// outcomes[i] is the outcome of page[i]. A failing unit never cancels the
// others; errors are carried by the outcomes.
func (f *Fanout) Run(ctx context.Context, store docmigrate.DocumentStore, page []*docmigrate.Document, transform TransformFunc) []Outcome {
	outcomes := make([]Outcome, len(page))

	var g errgroup.Group
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for i, d := range page {
		i, d := i, d
		g.Go(func() error {
			outcomes[i] = f.unit(ctx, store, d, transform)
			return nil
		})
	}
	_ = g.Wait() // units always return nil

	return outcomes
}

func (f *Fanout) unit(ctx context.Context, store docmigrate.DocumentStore, d *docmigrate.Document, transform TransformFunc) (out Outcome) {
	id, collection := d.ID, d.Collection
	before := change.Clone(d.Fields)
	out.Document = d

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Document: d,
				Status:   StatusFailed,
				Err:      transformError(d, fmt.Errorf("panic: %v", r)),
			}
		}
	}()

	next, err := transform(ctx, d)
	if err != nil {
		return Outcome{Document: d, Status: StatusFailed, Err: transformError(d, err)}
	}
	if next == nil {
		return Outcome{Document: d, Status: StatusFailed, Err: transformError(d, fmt.Errorf("transform returned no document"))}
	}
	if next.ID != id || next.Collection != collection {
		return Outcome{
			Document: d,
			Status:   StatusFailed,
			Err:      transformError(d, fmt.Errorf("transform changed the identity of the document to %q in collection %q", next.ID, next.Collection)),
		}
	}

	if !change.Differs(before, next.Fields) {
		return Outcome{Document: d, Status: StatusSkipped}
	}

	stored, err := store.UpdateDocument(ctx, collection, id, next.Fields)
	if err != nil {
		return Outcome{Document: d, Status: StatusFailed, Err: persistenceError(d, err)}
	}
	if stored == nil || stored.ID != id || stored.Collection != collection {
		return Outcome{Document: d, Status: StatusFailed, Err: identityViolation(collection, id, stored)}
	}

	f.log.Debug("Document migrated", zap.String("collection", collection), zap.String("id", id))
	return Outcome{Document: stored, Status: StatusUpdated}
}
