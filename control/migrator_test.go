package control

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate/control/migrations"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T) *SqlStore {
	t.Helper()
	store, err := NewSqlStore(InmemPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestUp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// a new database should have a user_version of 0
	v, err := store.userVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, v)

	migrator := NewMigrator(store, zaptest.NewLogger(t))
	require.NoError(t, migrator.Up(ctx, migrations.AllUp))

	v, err = store.userVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, v)

	names, err := store.tableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"migration_runs", "projects"}, names)

	// running again is a no-op
	require.NoError(t, migrator.Up(ctx, migrations.AllUp))
	v, err = store.userVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestUp_SkipsAppliedScripts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	source := fstest.MapFS{
		"0001_create_a.sql": {Data: []byte(`CREATE TABLE a (id TEXT NOT NULL PRIMARY KEY);`)},
		"0002_create_b.sql": {Data: []byte(`CREATE TABLE b (id TEXT NOT NULL PRIMARY KEY);`)},
	}
	migrator := NewMigrator(store, zaptest.NewLogger(t))
	require.NoError(t, migrator.Up(ctx, source))

	source["0003_create_c.sql"] = &fstest.MapFile{Data: []byte(`CREATE TABLE c (id TEXT NOT NULL PRIMARY KEY);`)}
	require.NoError(t, migrator.Up(ctx, source))

	names, err := store.tableNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, names)
}

func TestUp_FailedScriptIsRolledBack(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	source := fstest.MapFS{
		"0001_create_a.sql": {Data: []byte(`CREATE TABLE a (id TEXT NOT NULL PRIMARY KEY);`)},
		"0002_broken.sql":   {Data: []byte(`CREATE TABLE b (id TEXT NOT NULL PRIMARY KEY); NOT SQL;`)},
	}
	err := NewMigrator(store, zaptest.NewLogger(t)).Up(ctx, source)
	require.Error(t, err)
	require.Equal(t, errors.EInternal, errors.ErrorCode(err))

	v, err := store.userVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestScriptVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filename string
		want     int
		wantErr  bool
	}{
		{
			"single digit number",
			"0001_some_file_name.sql",
			1,
			false,
		},
		{
			"larger number",
			"0921_another_file.sql",
			921,
			false,
		},
		{
			"bad name",
			"not_numbered_correctly.sql",
			0,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scriptVersion(tt.filename)
			require.Equal(t, tt.want, got)
			if tt.wantErr {
				require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
			} else {
				require.NoError(t, err)
			}
		})
	}
}
