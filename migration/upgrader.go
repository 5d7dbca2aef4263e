package migration

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"github.com/weiplanet/docmigrate/kit/tracing"
	"github.com/weiplanet/docmigrate/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Upgrader brings projects to a target version by running the registered
// migrations one after the other. Every executed migration is recorded as
// a docmigrate.Run in the control store; the project version is updated
// only after a migration succeeded.
type Upgrader struct {
	log      *zap.Logger
	registry *Registry
	runner   *Runner
	tenant   docmigrate.DocumentStore
	control  docmigrate.ControlStore
	clock    clock.Clock
	target   string
}

// NewUpgrader returns an upgrader to the latest version of registry.
func NewUpgrader(log *zap.Logger, registry *Registry, runner *Runner, tenant docmigrate.DocumentStore, control docmigrate.ControlStore) *Upgrader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Upgrader{
		log:      log,
		registry: registry,
		runner:   runner,
		tenant:   tenant,
		control:  control,
		clock:    clock.New(),
		target:   registry.Latest(),
	}
}

// WithClock sets the clock used to stamp runs.
func (u *Upgrader) WithClock(c clock.Clock) *Upgrader {
	u.clock = c
	return u
}

// WithTarget stops upgrades at version instead of the latest version.
// An empty version keeps the latest version.
func (u *Upgrader) WithTarget(version string) *Upgrader {
	if version != "" {
		u.target = version
	}
	return u
}

// Upgrade migrates the project projectID until it reaches the target
// version and returns the recorded runs. It stops at the first failed migration.
func (u *Upgrader) Upgrade(ctx context.Context, projectID string) ([]*docmigrate.Run, error) {
	span, ctx := tracing.StartNamedSpan(ctx, "migration.Upgrade", map[string]string{"project": projectID})
	defer span.Finish()

	log := u.log.With(zap.String("project", projectID))
	ctx = logger.NewContext(ctx, log)

	found, err := u.control.FindProjectByID(ctx, projectID)
	if err != nil {
		return nil, tracing.LogError(span, err)
	}
	project := *found

	plan, err := u.registry.PlanTo(project.Version, u.target)
	if err != nil {
		return nil, tracing.LogError(span, err)
	}

	var runs []*docmigrate.Run
	for _, impl := range plan {
		run, err := u.step(ctx, &project, impl)
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, tracing.LogError(span, err)
		}
	}
	return runs, nil
}

func (u *Upgrader) step(ctx context.Context, project *docmigrate.Project, impl Implementation) (*docmigrate.Run, error) {
	log := logger.FromContext(ctx)
	entry, _ := u.registry.Lookup(impl)

	run := &docmigrate.Run{
		ProjectID:      project.ID,
		Implementation: entry.Name,
		FromVersion:    project.Version,
		ToVersion:      entry.Target,
		StartedAt:      u.clock.Now().UTC(),
	}
	log.Info("Migration started",
		zap.String("migration", entry.Name),
		zap.String("from", run.FromVersion),
		zap.String("to", run.ToVersion))

	bound := u.runner.Bind(project, u.tenant, u.control)
	execErr := entry.New().Execute(ctx, bound)

	finished := u.clock.Now().UTC()
	run.FinishedAt = &finished
	tally := bound.Tally()
	run.Processed, run.Updated, run.Skipped, run.Failed = tally.Processed, tally.Updated, tally.Skipped, tally.Failed
	if execErr != nil {
		run.Error = execErr.Error()
	}

	if err := u.control.RecordRun(ctx, run); err != nil {
		return run, multierr.Append(execErr, err)
	}
	if execErr != nil {
		log.Error("Migration failed", zap.String("migration", entry.Name), zap.Error(execErr))
		return run, &ierrors.Error{
			Code: ierrors.ErrorCode(execErr),
			Op:   OpUpgrade,
			Msg:  fmt.Sprintf("migration %s of project %q failed", entry.Name, project.ID),
			Err:  execErr,
		}
	}

	if err := u.control.UpdateProjectVersion(ctx, project.ID, entry.Target); err != nil {
		return run, err
	}
	project.Version = entry.Target

	log.Info("Migration finished",
		zap.String("migration", entry.Name),
		zap.String("version", entry.Target),
		zap.Int("processed", run.Processed),
		zap.Int("updated", run.Updated),
		zap.Int("failed", run.Failed),
		zap.Duration("took", finished.Sub(run.StartedAt)))
	return run, nil
}

// UpgradeAll upgrades every project of the control store. A failed project
// does not stop the others; the errors are combined.
func (u *Upgrader) UpgradeAll(ctx context.Context) ([]*docmigrate.Run, error) {
	projects, err := u.control.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	var (
		runs []*docmigrate.Run
		errs error
	)
	for _, p := range projects {
		rs, err := u.Upgrade(ctx, p.ID)
		runs = append(runs, rs...)
		errs = multierr.Append(errs, err)
	}
	return runs, errs
}
