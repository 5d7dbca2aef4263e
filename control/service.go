// Package control implements docmigrate.ControlStore, the cross-tenant
// project registry and migration run history, on sqlite.
package control

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap"
)

var _ docmigrate.ControlStore = (*Service)(nil)

// Service is the sqlite backed docmigrate.ControlStore.
type Service struct {
	store *SqlStore
	log   *zap.Logger
	clock clock.Clock
}

// NewService returns a Service on store. The schema is expected to be up to date,
// see Migrator.
func NewService(log *zap.Logger, store *SqlStore) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		log:   log,
		clock: clock.New(),
	}
}

// WithClock sets the clock used to stamp projects.
func (s *Service) WithClock(c clock.Clock) *Service {
	s.clock = c
	return s
}

type projectRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Version   string `db:"version"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r projectRow) toProject() (*docmigrate.Project, error) {
	created, err := time.Parse(timeLayout, r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updated, err := time.Parse(timeLayout, r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &docmigrate.Project{
		ID:        r.ID,
		Name:      r.Name,
		Version:   r.Version,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

type runRow struct {
	ID             string         `db:"id"`
	ProjectID      string         `db:"project_id"`
	Implementation string         `db:"implementation"`
	FromVersion    string         `db:"from_version"`
	ToVersion      string         `db:"to_version"`
	StartedAt      string         `db:"started_at"`
	FinishedAt     sql.NullString `db:"finished_at"`
	Processed      int            `db:"processed"`
	Updated        int            `db:"updated"`
	Skipped        int            `db:"skipped"`
	Failed         int            `db:"failed"`
	Error          string         `db:"error"`
}

func (r runRow) toRun() (*docmigrate.Run, error) {
	started, err := time.Parse(timeLayout, r.StartedAt)
	if err != nil {
		return nil, err
	}
	run := &docmigrate.Run{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		Implementation: r.Implementation,
		FromVersion:    r.FromVersion,
		ToVersion:      r.ToVersion,
		StartedAt:      started,
		Processed:      r.Processed,
		Updated:        r.Updated,
		Skipped:        r.Skipped,
		Failed:         r.Failed,
		Error:          r.Error,
	}
	if r.FinishedAt.Valid {
		finished, err := time.Parse(timeLayout, r.FinishedAt.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &finished
	}
	return run, nil
}

// timeLayout is fixed width so that stored times sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func internal(op string, err error) error {
	return errors.ErrInternalServiceError(err, errors.WithErrorOp("control/"+op))
}

// FindProjectByID returns a single project by ID.
func (s *Service) FindProjectByID(ctx context.Context, id string) (*docmigrate.Project, error) {
	query, args, err := sq.Select("id", "name", "version", "created_at", "updated_at").
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, internal(docmigrate.OpFindProjectByID, err)
	}

	var row projectRow
	if err := s.store.DB.GetContext(ctx, &row, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, &errors.Error{
				Code: errors.ENotFound,
				Op:   "control/" + docmigrate.OpFindProjectByID,
				Msg:  fmt.Sprintf("project %q not found", id),
			}
		}
		return nil, internal(docmigrate.OpFindProjectByID, err)
	}

	p, err := row.toProject()
	if err != nil {
		return nil, internal(docmigrate.OpFindProjectByID, err)
	}
	return p, nil
}

// ListProjects returns every project ordered by ID.
func (s *Service) ListProjects(ctx context.Context) ([]*docmigrate.Project, error) {
	query, args, err := sq.Select("id", "name", "version", "created_at", "updated_at").
		From("projects").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, internal(docmigrate.OpListProjects, err)
	}

	rows := []projectRow{}
	if err := s.store.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, internal(docmigrate.OpListProjects, err)
	}

	ps := make([]*docmigrate.Project, 0, len(rows))
	for _, r := range rows {
		p, err := r.toProject()
		if err != nil {
			return nil, internal(docmigrate.OpListProjects, err)
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// CreateProject registers p and sets its timestamps.
func (s *Service) CreateProject(ctx context.Context, p *docmigrate.Project) error {
	if p.ID == "" {
		return &errors.Error{
			Code: errors.EEmptyValue,
			Op:   "control/" + docmigrate.OpCreateProject,
			Msg:  "project id is required",
		}
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	now := s.clock.Now().UTC()
	query, args, err := sq.Insert("projects").
		Columns("id", "name", "version", "created_at", "updated_at").
		Values(p.ID, p.Name, p.Version, formatTime(now), formatTime(now)).
		ToSql()
	if err != nil {
		return internal(docmigrate.OpCreateProject, err)
	}

	if _, err := s.store.DB.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return &errors.Error{
				Code: errors.EConflict,
				Op:   "control/" + docmigrate.OpCreateProject,
				Msg:  fmt.Sprintf("project %q already exists", p.ID),
			}
		}
		return internal(docmigrate.OpCreateProject, err)
	}

	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// UpdateProjectVersion records the schema version a project has reached.
func (s *Service) UpdateProjectVersion(ctx context.Context, id, version string) error {
	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	query, args, err := sq.Update("projects").
		Set("version", version).
		Set("updated_at", formatTime(s.clock.Now())).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return internal(docmigrate.OpUpdateProjectVersion, err)
	}

	res, err := s.store.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return internal(docmigrate.OpUpdateProjectVersion, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return internal(docmigrate.OpUpdateProjectVersion, err)
	}
	if n == 0 {
		return &errors.Error{
			Code: errors.ENotFound,
			Op:   "control/" + docmigrate.OpUpdateProjectVersion,
			Msg:  fmt.Sprintf("project %q not found", id),
		}
	}

	s.log.Debug("Project version updated", zap.String("project", id), zap.String("version", version))
	return nil
}

// RecordRun stores run, assigning it an ID when it has none.
func (s *Service) RecordRun(ctx context.Context, run *docmigrate.Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	var finished interface{}
	if run.FinishedAt != nil {
		finished = formatTime(*run.FinishedAt)
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	query, args, err := sq.Insert("migration_runs").
		Columns("id", "project_id", "implementation", "from_version", "to_version",
			"started_at", "finished_at", "processed", "updated", "skipped", "failed", "error").
		Values(run.ID, run.ProjectID, run.Implementation, run.FromVersion, run.ToVersion,
			formatTime(run.StartedAt), finished, run.Processed, run.Updated, run.Skipped, run.Failed, run.Error).
		ToSql()
	if err != nil {
		return internal(docmigrate.OpRecordRun, err)
	}

	if _, err := s.store.DB.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return &errors.Error{
				Code: errors.ENotFound,
				Op:   "control/" + docmigrate.OpRecordRun,
				Msg:  fmt.Sprintf("project %q not found", run.ProjectID),
			}
		}
		return internal(docmigrate.OpRecordRun, err)
	}
	return nil
}

// ListRuns returns the runs recorded for projectID, oldest first.
func (s *Service) ListRuns(ctx context.Context, projectID string) ([]*docmigrate.Run, error) {
	query, args, err := sq.Select("*").
		From("migration_runs").
		Where(sq.Eq{"project_id": projectID}).
		OrderBy("started_at", "rowid").
		ToSql()
	if err != nil {
		return nil, internal(docmigrate.OpListRuns, err)
	}

	rows := []runRow{}
	if err := s.store.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, internal(docmigrate.OpListRuns, err)
	}

	runs := make([]*docmigrate.Run, 0, len(rows))
	for _, r := range rows {
		run, err := r.toRun()
		if err != nil {
			return nil, internal(docmigrate.OpListRuns, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
