package control

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/control/migrations"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (*Service, *clock.Mock) {
	t.Helper()
	store := newTestStore(t)
	require.NoError(t, NewMigrator(store, zaptest.NewLogger(t)).Up(context.Background(), migrations.AllUp))

	mc := clock.NewMock()
	mc.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewService(zaptest.NewLogger(t), store).WithClock(mc), mc
}

func TestService_Projects(t *testing.T) {
	t.Parallel()

	svc, mc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateProject(ctx, &docmigrate.Project{ID: "p2", Name: "second", Version: "0.11.0"}))
	p1 := &docmigrate.Project{ID: "p1", Name: "first", Version: "0.10.0"}
	require.NoError(t, svc.CreateProject(ctx, p1))
	require.True(t, p1.CreatedAt.Equal(mc.Now()))

	err := svc.CreateProject(ctx, &docmigrate.Project{ID: "p1"})
	require.Equal(t, errors.EConflict, errors.ErrorCode(err))

	err = svc.CreateProject(ctx, &docmigrate.Project{})
	require.Equal(t, errors.EEmptyValue, errors.ErrorCode(err))

	got, err := svc.FindProjectByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "first", got.Name)
	require.Equal(t, "0.10.0", got.Version)
	require.True(t, got.CreatedAt.Equal(mc.Now()))

	_, err = svc.FindProjectByID(ctx, "nope")
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))
	require.Equal(t, "control/FindProjectByID", errors.ErrorOp(err))

	mc.Add(time.Hour)
	require.NoError(t, svc.UpdateProjectVersion(ctx, "p1", "0.11.0"))
	got, err = svc.FindProjectByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "0.11.0", got.Version)
	require.True(t, got.UpdatedAt.Equal(mc.Now()))

	err = svc.UpdateProjectVersion(ctx, "nope", "1.0.0")
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	ps, err := svc.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	require.Equal(t, "p1", ps[0].ID)
	require.Equal(t, "p2", ps[1].ID)
}

func TestService_Runs(t *testing.T) {
	t.Parallel()

	svc, mc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CreateProject(ctx, &docmigrate.Project{ID: "p1", Version: "0.10.0"}))

	started := mc.Now()
	finished := started.Add(time.Minute)
	first := &docmigrate.Run{
		ProjectID:      "p1",
		Implementation: "V11",
		FromVersion:    "0.10.0",
		ToVersion:      "0.11.0",
		StartedAt:      started,
		FinishedAt:     &finished,
		Processed:      250,
		Updated:        120,
		Skipped:        129,
		Failed:         1,
	}
	require.NoError(t, svc.RecordRun(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &docmigrate.Run{
		ProjectID:      "p1",
		Implementation: "V12",
		FromVersion:    "0.11.0",
		ToVersion:      "0.12.0",
		StartedAt:      finished,
		Error:          "fetch failed",
	}
	require.NoError(t, svc.RecordRun(ctx, second))

	err := svc.RecordRun(ctx, &docmigrate.Run{ProjectID: "nope", StartedAt: started})
	require.Equal(t, errors.ENotFound, errors.ErrorCode(err))

	runs, err := svc.ListRuns(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, runs, 2)

	require.Equal(t, first.ID, runs[0].ID)
	require.Equal(t, 250, runs[0].Processed)
	require.Equal(t, 1, runs[0].Failed)
	require.True(t, runs[0].Succeeded())
	require.True(t, runs[0].FinishedAt.Equal(finished))

	require.Equal(t, "V12", runs[1].Implementation)
	require.Nil(t, runs[1].FinishedAt)
	require.False(t, runs[1].Succeeded())

	runs, err = svc.ListRuns(ctx, "p2")
	require.NoError(t, err)
	require.Empty(t, runs)
}
