package control

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap"
)

// Migrator brings the schema of the control database up to date.
type Migrator struct {
	store *SqlStore
	log   *zap.Logger
}

// NewMigrator returns a Migrator for store.
func NewMigrator(store *SqlStore, log *zap.Logger) *Migrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Migrator{
		store: store,
		log:   log,
	}
}

// Up applies, in order, every script of source numbered above the user_version
// of the database. Scripts are named like "0002_migration_name.sql".
func (m *Migrator) Up(ctx context.Context, source fs.ReadDirFS) error {
	list, err := source.ReadDir(".")
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	// sort the list according to the version number to ensure the migrations are applied in the correct order
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})

	current, err := m.store.userVersion(ctx)
	if err != nil {
		return err
	}

	final, err := scriptVersion(list[len(list)-1].Name())
	if err != nil {
		return err
	}

	// log this message only if there are migrations to run
	if final > current {
		m.log.Info("Bringing up control migrations", zap.Int("migration_count", final-current))
	}

	for _, f := range list {
		n := f.Name()
		v, err := scriptVersion(n)
		if err != nil {
			return err
		}

		// read user_version again so that an out of order list never applies
		// an older script after a newer one
		c, err := m.store.userVersion(ctx)
		if err != nil {
			return err
		}

		if v <= c {
			continue
		}

		m.log.Debug("Executing control migration", zap.String("migration_name", n))
		script, err := fs.ReadFile(source, n)
		if err != nil {
			return err
		}

		if err := m.store.execTrans(ctx, string(script), v); err != nil {
			return &errors.Error{
				Code: errors.EInternal,
				Op:   "control/Migrator.Up",
				Msg:  fmt.Sprintf("migration %q failed", n),
				Err:  err,
			}
		}
	}

	return nil
}

// extract the version number as an integer from a file named like "0002_migration_name.sql"
func scriptVersion(filename string) (int, error) {
	vString := strings.Split(filename, "_")[0]
	vInt, err := strconv.Atoi(vString)
	if err != nil {
		return 0, &errors.Error{
			Code: errors.EInvalid,
			Msg:  fmt.Sprintf("migration script %q is not numbered", filename),
			Err:  err,
		}
	}

	return vInt, nil
}
