package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/authorizer"
	icontext "github.com/weiplanet/docmigrate/context"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"github.com/weiplanet/docmigrate/kit/tracing"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the number of documents fetched per page.
	DefaultPageSize = 100
	// DefaultSchema is the schema collections are checked against.
	DefaultSchema = "docmigrate"
)

// Counts tallies the outcomes of visited documents.
type Counts struct {
	Processed int
	Updated   int
	Skipped   int
	Failed    int
}

func (c *Counts) add(o Counts) {
	c.Processed += o.Processed
	c.Updated += o.Updated
	c.Skipped += o.Skipped
	c.Failed += o.Failed
}

// CollectionSummary is the result of the traversal of one collection.
type CollectionSummary struct {
	Collection string
	// Total is the document count taken before the first page.
	Total int
	Counts
}

// Summary is the result of a traversal.
type Summary struct {
	Collections []CollectionSummary
	// Errors are the document errors, in the order they were reported.
	Errors []error
}

// Totals returns the counts of all collections.
func (s Summary) Totals() Counts {
	var c Counts
	for _, cs := range s.Collections {
		c.add(cs.Counts)
	}
	return c
}

// Err returns the document errors combined, or nil.
func (s Summary) Err() error {
	return multierr.Combine(s.Errors...)
}

// RunnerOption configures a Runner.
type RunnerOption func(r *Runner)

// WithPageSize sets the number of documents per page.
func WithPageSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithConcurrency caps the number of documents of a page transformed at
// once. Zero means one unit per document.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithSchema sets the schema collection existence is checked against.
func WithSchema(schema string) RunnerOption {
	return func(r *Runner) {
		r.schema = schema
	}
}

// WithRegisterer registers the runner metrics with reg.
func WithRegisterer(reg prometheus.Registerer) RunnerOption {
	return func(r *Runner) {
		reg.MustRegister(r.metrics.PrometheusCollectors()...)
	}
}

// Runner executes migrations against the tenant store of one project. A
// runner returned by NewRunner is unbound; Bind returns a copy bound to a
// project that migrations use through ForEachDocument and CreateCollection.
type Runner struct {
	log         *zap.Logger
	manifest    *Manifest
	pageSize    int
	concurrency int
	schema      string
	metrics     *runnerMetrics

	project *docmigrate.Project
	tenant  docmigrate.DocumentStore
	control docmigrate.ControlStore
	tally   *Counts
}

// NewRunner returns an unbound runner traversing the collections of manifest.
func NewRunner(log *zap.Logger, manifest *Manifest, opts ...RunnerOption) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Runner{
		log:      log,
		manifest: manifest,
		pageSize: DefaultPageSize,
		schema:   DefaultSchema,
		metrics:  newRunnerMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PrometheusCollectors returns the metrics of the runner.
func (r *Runner) PrometheusCollectors() []prometheus.Collector {
	return r.metrics.PrometheusCollectors()
}

// Bind returns a copy of the runner bound to project. tenant is scoped to
// the namespace of the project.
func (r *Runner) Bind(project *docmigrate.Project, tenant docmigrate.DocumentStore, control docmigrate.ControlStore) *Runner {
	b := *r
	b.project = project
	b.tenant = tenant.WithNamespace(docmigrate.NamespaceFor(project.ID))
	b.control = control
	b.tally = &Counts{}
	b.log = r.log.With(zap.String("project", project.ID))
	return &b
}

// Project returns the project the runner is bound to.
func (r *Runner) Project() *docmigrate.Project { return r.project }

// Tenant returns the tenant store scoped to the project namespace.
func (r *Runner) Tenant() docmigrate.DocumentStore { return r.tenant }

// Control returns the control store.
func (r *Runner) Control() docmigrate.ControlStore { return r.control }

// Manifest returns the manifest of the runner.
func (r *Runner) Manifest() *Manifest { return r.manifest }

// Tally returns the counts of every traversal of the bound runner so far.
func (r *Runner) Tally() Counts {
	if r.tally == nil {
		return Counts{}
	}
	return *r.tally
}

func (r *Runner) bound() error {
	if r.project == nil || r.tenant == nil {
		return ErrNotBound
	}
	return nil
}

// systemContext returns ctx carrying the system authorizer.
func systemContext(ctx context.Context) context.Context {
	return icontext.SetAuthorizer(ctx, authorizer.System())
}

// CreateCollection provisions the manifest collection id when it does not
// exist. name overrides the display name of the manifest when it is not empty.
func (r *Runner) CreateCollection(ctx context.Context, id, name string) error {
	if err := r.bound(); err != nil {
		return err
	}
	c, ok := r.manifest.Collection(id)
	if !ok {
		return provisionError(id, &ierrors.Error{
			Code: ierrors.ENotFound,
			Msg:  fmt.Sprintf("collection %q is not in the manifest", id),
		})
	}
	if name != "" {
		c.Name = name
	}

	span, ctx := tracing.StartNamedSpan(ctx, "migration.CreateCollection", map[string]string{"collection": id})
	defer span.Finish()

	_, err := NewProvisioner(r.log, r.schema).Ensure(systemContext(ctx), r.tenant, c)
	return tracing.LogError(span, err)
}

// ForEachDocument applies transform to every document of the collections of
// the manifest flagged for traversal. Collections are traversed one after
// the other in manifest order. Document errors are logged and collected in
// the summary; the returned error is the fatal error that stopped the traversal.
func (r *Runner) ForEachDocument(ctx context.Context, transform TransformFunc) (Summary, error) {
	if err := r.bound(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, c := range r.manifest.Traversed() {
		cs, errs, err := r.traverse(ctx, c.ID, transform)
		sum.Collections = append(sum.Collections, cs)
		sum.Errors = append(sum.Errors, errs...)
		if err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// ForEachDocumentIn applies transform to every document of one manifest collection.
func (r *Runner) ForEachDocumentIn(ctx context.Context, collection string, transform TransformFunc) (Summary, error) {
	if err := r.bound(); err != nil {
		return Summary{}, err
	}
	if _, ok := r.manifest.Collection(collection); !ok {
		return Summary{}, fetchError(collection, &ierrors.Error{
			Code: ierrors.ENotFound,
			Msg:  fmt.Sprintf("collection %q is not in the manifest", collection),
		})
	}

	cs, errs, err := r.traverse(ctx, collection, transform)
	return Summary{Collections: []CollectionSummary{cs}, Errors: errs}, err
}

func (r *Runner) traverse(ctx context.Context, collection string, transform TransformFunc) (CollectionSummary, []error, error) {
	span, ctx := tracing.StartNamedSpan(ctx, "migration.traverse", map[string]string{
		"collection": collection,
		"project":    r.project.ID,
	})
	defer span.Finish()

	ctx = systemContext(ctx)
	log := r.log.With(zap.String("collection", collection))
	cs := CollectionSummary{Collection: collection}

	total, err := r.tenant.CountDocuments(ctx, collection)
	if err != nil {
		return cs, nil, tracing.LogError(span, fetchError(collection, err))
	}
	cs.Total = total

	var (
		errs   []error
		fanout = NewFanout(log, r.concurrency)
		it     = NewPageIterator(r.tenant, collection, r.pageSize)
	)
	for it.Next(ctx) {
		r.metrics.pages.WithLabelValues(collection).Inc()
		start := time.Now()
		page := it.Page()

		var fatal error
		for _, o := range fanout.Run(ctx, r.tenant, page, transform) {
			cs.Processed++
			r.metrics.documents.WithLabelValues(collection, o.Status.String()).Inc()
			switch o.Status {
			case StatusUpdated:
				cs.Updated++
			case StatusSkipped:
				cs.Skipped++
			case StatusFailed:
				cs.Failed++
				errs = append(errs, o.Err)
				log.Error("Failed to migrate document",
					zap.String("document", o.Document.ID),
					zap.Error(o.Err))
				if fatal == nil && IsFatal(o.Err) {
					fatal = o.Err
				}
			}
		}
		r.metrics.pageDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())

		if len(page) > 0 || it.Fetches() == 1 {
			log.Info(fmt.Sprintf("%d / %d", cs.Processed, total))
		}
		if fatal != nil {
			r.tally.add(cs.Counts)
			return cs, errs, tracing.LogError(span, fatal)
		}
	}
	r.tally.add(cs.Counts)
	if err := it.Err(); err != nil {
		return cs, errs, tracing.LogError(span, err)
	}

	log.Info("Collection migrated",
		zap.Int("processed", cs.Processed),
		zap.Int("updated", cs.Updated),
		zap.Int("skipped", cs.Skipped),
		zap.Int("failed", cs.Failed),
		zap.Int("fetches", it.Fetches()))
	return cs, errs, nil
}
