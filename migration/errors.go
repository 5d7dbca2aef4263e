package migration

import (
	"errors"
	"fmt"

	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
)

var (
	// ErrIdentityViolation is wrapped by the error raised when a store update
	// returns a document other than the one that was written.
	ErrIdentityViolation = errors.New("document identity changed during update")

	// ErrNotBound is returned by runner primitives called before Bind.
	ErrNotBound = errors.New("runner is not bound to a project")

	// ErrNoMigration is wrapped by the error returned when no migration is
	// registered for a version.
	ErrNoMigration = errors.New("no migration registered for version")
)

// ops of the errors raised by the engine.
const (
	OpProvision = "migration/provision"
	OpFetch     = "migration/fetch"
	OpTransform = "migration/transform"
	OpPersist   = "migration/persist"
	OpIdentity  = "migration/identity"
	OpResolve   = "migration/Resolve"
	OpPlan      = "migration/Plan"
	OpUpgrade   = "migration/Upgrade"
)

func provisionError(collection string, err error) error {
	return &ierrors.Error{
		Code: ierrors.ErrorCode(err),
		Op:   OpProvision,
		Msg:  fmt.Sprintf("unable to provision collection %q", collection),
		Err:  err,
	}
}

func fetchError(collection string, err error) error {
	return &ierrors.Error{
		Code: ierrors.ErrorCode(err),
		Op:   OpFetch,
		Msg:  fmt.Sprintf("unable to fetch documents of collection %q", collection),
		Err:  err,
	}
}

func transformError(d *docmigrate.Document, err error) error {
	return &ierrors.Error{
		Code: ierrors.EInvalid,
		Op:   OpTransform,
		Msg:  fmt.Sprintf("transform of document %q failed", d.ID),
		Err:  err,
	}
}

func persistenceError(d *docmigrate.Document, err error) error {
	return &ierrors.Error{
		Code: ierrors.ErrorCode(err),
		Op:   OpPersist,
		Msg:  fmt.Sprintf("unable to update document %q", d.ID),
		Err:  err,
	}
}

func identityViolation(collection, id string, got *docmigrate.Document) error {
	gotID, gotCollection := "", ""
	if got != nil {
		gotID, gotCollection = got.ID, got.Collection
	}
	return &ierrors.Error{
		Code: ierrors.EConflict,
		Op:   OpIdentity,
		Msg: fmt.Sprintf("update of document %q in collection %q returned document %q in collection %q",
			id, collection, gotID, gotCollection),
		Err: ErrIdentityViolation,
	}
}

// IsFatal reports whether err aborts a run. Transform and persistence
// errors are isolated to their document and are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	switch ierrors.ErrorOp(err) {
	case OpTransform, OpPersist:
		return false
	}
	return true
}
