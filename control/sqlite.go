package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	// DefaultFilename is the default filename of the control database.
	DefaultFilename = "control.sqlite"
	// InmemPath is the path used to open a database that lives in memory only.
	InmemPath = ":memory:"
)

// SqlStore is a wrapper around the db and provides basic functionality for
// maintaining the db including flushing the data from the db during end-to-end testing.
type SqlStore struct {
	Mu   sync.Mutex
	DB   *sqlx.DB
	log  *zap.Logger
	path string
}

// NewSqlStore opens the sqlite database at path, creating the parent
// directory when needed.
func NewSqlStore(path string, log *zap.Logger) (*SqlStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dsn := InmemPath
	if path != InmemPath {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("unable to create directory %s: %v", path, err)
		}
		dsn = path
	}

	db, err := sqlx.Open("sqlite3", dsn+"?_fk=true")
	if err != nil {
		return nil, err
	}

	// each connection to :memory: is a separate database
	if path == InmemPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info("Resources opened", zap.String("path", path))

	return &SqlStore{
		DB:   db,
		log:  log,
		path: path,
	}, nil
}

// Close the connection to the sqlite database
func (s *SqlStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// Path returns the path of the database file.
func (s *SqlStore) Path() string {
	return s.path
}

// execTrans runs stmt in a transaction and, when version is positive,
// records it as the new user_version in the same transaction.
func (s *SqlStore) execTrans(ctx context.Context, stmt string, version int) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		tx.Rollback()
		return err
	}

	if version > 0 {
		// PRAGMA does not accept bound parameters
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (s *SqlStore) userVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.DB.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SqlStore) tableNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.DB.SelectContext(ctx, &names, "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"); err != nil {
		return nil, err
	}
	return names, nil
}
