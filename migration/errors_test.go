package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
)

func TestIsFatal(t *testing.T) {
	d := &docmigrate.Document{ID: "u001", Collection: "users"}
	cause := &ierrors.Error{Code: ierrors.EConflict, Msg: "duplicate"}

	tests := []struct {
		name  string
		err   error
		fatal bool
		code  string
	}{
		{name: "nil", err: nil, fatal: false, code: ""},
		{name: "transform", err: transformError(d, errors.New("bad")), fatal: false, code: ierrors.EInvalid},
		{name: "persist", err: persistenceError(d, cause), fatal: false, code: ierrors.EConflict},
		{name: "provision", err: provisionError("audit", cause), fatal: true, code: ierrors.EConflict},
		{name: "fetch", err: fetchError("audit", context.Canceled), fatal: true, code: ierrors.EInternal},
		{name: "identity", err: identityViolation("users", "u001", nil), fatal: true, code: ierrors.EConflict},
		{name: "plain", err: errors.New("unknown"), fatal: true, code: ierrors.EInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
			assert.Equal(t, tt.code, ierrors.ErrorCode(tt.err))
		})
	}
}

func TestIdentityViolation_Message(t *testing.T) {
	err := identityViolation("users", "u001", &docmigrate.Document{ID: "u002", Collection: "users"})
	assert.EqualError(t, err, `update of document "u001" in collection "users" returned document "u002" in collection "users": document identity changed during update`)
}
