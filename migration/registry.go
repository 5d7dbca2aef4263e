package migration

import (
	"context"
	"fmt"

	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
)

// Migration upgrades the documents of the project a runner is bound to.
type Migration interface {
	Execute(ctx context.Context, r *Runner) error
}

// MigrationFunc adapts a func to a Migration.
type MigrationFunc func(ctx context.Context, r *Runner) error

// Execute calls fn.
func (fn MigrationFunc) Execute(ctx context.Context, r *Runner) error {
	return fn(ctx, r)
}

// Implementation identifies a registered migration. The set of
// implementations of a registry is closed: values are the dense range
// [0, Registry.Len()).
type Implementation uint8

// Entry registers an implementation.
type Entry struct {
	Implementation Implementation
	// Name is a human readable name used in logs and run records.
	Name string
	// Versions are the recorded project versions the migration upgrades from.
	Versions []string
	// Target is the version a project is at once the migration succeeded.
	Target string
	// New returns the migration.
	New func() Migration
}

// Registry resolves the recorded version of a project to the migration
// that upgrades it.
type Registry struct {
	entries  []Entry
	versions map[string]Implementation
	latest   string
}

// NewRegistry returns a registry of entries, where entries[i] must register
// Implementation(i). latest is the version every project is upgraded to.
func NewRegistry(latest string, entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries:  entries,
		versions: map[string]Implementation{},
		latest:   latest,
	}
	for i, e := range entries {
		if int(e.Implementation) != i {
			return nil, &ierrors.Error{
				Code: ierrors.EInvalid,
				Msg:  fmt.Sprintf("registry entry %d registers implementation %d", i, e.Implementation),
			}
		}
		if e.New == nil || e.Target == "" {
			return nil, &ierrors.Error{
				Code: ierrors.EInvalid,
				Msg:  fmt.Sprintf("implementation %q has no constructor or target version", e.Name),
			}
		}
		for _, v := range e.Versions {
			if prev, ok := r.versions[v]; ok {
				return nil, &ierrors.Error{
					Code: ierrors.EInvalid,
					Msg:  fmt.Sprintf("version %q is registered by both %q and %q", v, entries[prev].Name, e.Name),
				}
			}
			r.versions[v] = e.Implementation
		}
	}
	return r, nil
}

// Len returns the number of registered implementations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Latest returns the version projects are upgraded to.
func (r *Registry) Latest() string {
	return r.latest
}

// Resolve returns the implementation that upgrades a project recorded at version.
func (r *Registry) Resolve(version string) (Implementation, error) {
	impl, ok := r.versions[version]
	if !ok {
		return 0, &ierrors.Error{
			Code: ierrors.ENotFound,
			Op:   OpResolve,
			Msg:  fmt.Sprintf("no migration registered for version %q", version),
			Err:  ErrNoMigration,
		}
	}
	return impl, nil
}

// Lookup returns the entry of impl.
func (r *Registry) Lookup(impl Implementation) (Entry, bool) {
	if int(impl) >= len(r.entries) {
		return Entry{}, false
	}
	return r.entries[impl], true
}

// Name returns the name of impl.
func (r *Registry) Name(impl Implementation) string {
	e, ok := r.Lookup(impl)
	if !ok {
		return fmt.Sprintf("Implementation(%d)", impl)
	}
	return e.Name
}

// Plan returns the implementations that bring a project from version to
// Latest, in the order they must run. It is empty for a project already at Latest.
func (r *Registry) Plan(version string) ([]Implementation, error) {
	return r.PlanTo(version, r.latest)
}

// PlanTo returns the implementations that bring a project from version to
// target. target must be version itself or the target of one of the
// implementations on the upgrade path of version; otherwise PlanTo fails
// with EInvalid. An unknown version fails like Resolve.
func (r *Registry) PlanTo(version, target string) ([]Implementation, error) {
	var plan []Implementation
	for v := version; v != target; {
		impl, err := r.Resolve(v)
		if err != nil && (len(plan) > 0 || v == r.latest) {
			return nil, &ierrors.Error{
				Code: ierrors.EInvalid,
				Op:   OpPlan,
				Msg:  fmt.Sprintf("version %q is not on the upgrade path from version %q", target, version),
			}
		}
		if err != nil {
			return nil, err
		}
		if len(plan) == len(r.entries) {
			return nil, &ierrors.Error{
				Code: ierrors.EInternal,
				Op:   OpPlan,
				Msg:  fmt.Sprintf("upgrade path from version %q does not reach %q", version, target),
			}
		}
		plan = append(plan, impl)
		v = r.entries[impl].Target
	}
	return plan, nil
}
