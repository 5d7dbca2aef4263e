package docmigrate

import (
	"context"
	"time"
)

// Project is a tenant of the document store. Its documents live in
// the namespace returned by NamespaceFor(ID).
type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Version   string    `json:"version" db:"version"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ops for project errors and logs.
const (
	OpFindProjectByID      = "FindProjectByID"
	OpListProjects         = "ListProjects"
	OpCreateProject        = "CreateProject"
	OpUpdateProjectVersion = "UpdateProjectVersion"
	OpRecordRun            = "RecordRun"
	OpListRuns             = "ListRuns"
)

// NamespaceFor returns the tenant namespace owned by the project with the given id.
func NamespaceFor(projectID string) string {
	return "_" + projectID
}

// Run is the record of one migration step applied to a project.
type Run struct {
	ID             string     `json:"id" db:"id"`
	ProjectID      string     `json:"projectID" db:"project_id"`
	Implementation string     `json:"implementation" db:"implementation"`
	FromVersion    string     `json:"fromVersion" db:"from_version"`
	ToVersion      string     `json:"toVersion" db:"to_version"`
	StartedAt      time.Time  `json:"startedAt" db:"started_at"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty" db:"finished_at"`
	Processed      int        `json:"processed" db:"processed"`
	Updated        int        `json:"updated" db:"updated"`
	Skipped        int        `json:"skipped" db:"skipped"`
	Failed         int        `json:"failed" db:"failed"`
	Error          string     `json:"error,omitempty" db:"error"`
}

// Succeeded reports whether the run finished without a fatal error.
func (r *Run) Succeeded() bool {
	return r.FinishedAt != nil && r.Error == ""
}

//go:generate go run github.com/golang/mock/mockgen -package mock -destination ./mock/control_store.go github.com/weiplanet/docmigrate ControlStore

// ControlStore is the cross-tenant admin store holding the project registry
// and the history of migration runs.
type ControlStore interface {
	// FindProjectByID returns a single project by ID.
	FindProjectByID(ctx context.Context, id string) (*Project, error)

	// ListProjects returns every project ordered by ID.
	ListProjects(ctx context.Context) ([]*Project, error)

	// CreateProject registers a new project.
	CreateProject(ctx context.Context, p *Project) error

	// UpdateProjectVersion records the schema version a project has reached.
	UpdateProjectVersion(ctx context.Context, id, version string) error

	// RecordRun stores the outcome of a migration step.
	RecordRun(ctx context.Context, run *Run) error

	// ListRuns returns the runs recorded for a project, oldest first.
	ListRuns(ctx context.Context, projectID string) ([]*Run, error)
}
