package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorMsg(t *testing.T) {
	cases := []struct {
		name string
		err  error
		msg  string
	}{
		{
			name: "simple error",
			err:  &Error{Code: ENotFound},
			msg:  "<not found>",
		},
		{
			name: "with message",
			err: &Error{
				Code: ENotFound,
				Op:   "document/FindDocument",
				Msg:  fmt.Sprintf("document %q not found", "a1"),
			},
			msg: `document "a1" not found`,
		},
		{
			name: "with a third party error",
			err: &Error{
				Code: EInternal,
				Op:   "migration/fetch",
				Err:  errors.New("disk on fire"),
			},
			msg: "disk on fire",
		},
		{
			name: "with message and internal error",
			err: &Error{
				Code: EConflict,
				Msg:  "failed to update document",
				Err:  &Error{Code: EConflict, Msg: "duplicate email"},
			},
			msg: "failed to update document: duplicate email",
		},
	}
	for _, c := range cases {
		if c.msg != c.err.Error() {
			t.Fatalf("%s failed, want %s, got %s", c.name, c.msg, c.err.Error())
		}
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
		},
		{
			name: "plain error",
			err:  errors.New("plain"),
			want: EInternal,
		},
		{
			name: "nested code",
			err:  &Error{Op: "outer", Err: &Error{Code: EInvalid}},
			want: EInvalid,
		},
		{
			name: "wrapped by fmt",
			err:  fmt.Errorf("context: %w", &Error{Code: ENotFound}),
			want: ENotFound,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, ErrorCode(c.err))
		})
	}
}

func TestErrorOp(t *testing.T) {
	err := &Error{Err: &Error{Op: "migration/persist", Code: EConflict}}
	require.Equal(t, "migration/persist", ErrorOp(err))
	require.Equal(t, "", ErrorOp(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	require.Equal(t, "", ErrorMessage(nil))
	require.Equal(t, "An internal error has occurred.", ErrorMessage(errors.New("x")))
	require.Equal(t, "boom", ErrorMessage(&Error{Err: &Error{Msg: "boom"}}))
}

func TestErrInternalServiceError(t *testing.T) {
	require.NoError(t, ErrInternalServiceError(nil))

	plain := errors.New("bolt closed")
	got := ErrInternalServiceError(plain, WithErrorOp("document/CountDocuments"))
	require.Equal(t, EInternal, ErrorCode(got))
	require.Equal(t, "document/CountDocuments", ErrorOp(got))
	require.ErrorIs(t, got, plain)

	coded := &Error{Code: EConflict, Msg: "dup"}
	got = ErrInternalServiceError(coded, WithErrorOp("document/UpdateDocument"))
	require.Same(t, coded, got)
	require.Equal(t, "document/UpdateDocument", coded.Op)
}

func TestJSON(t *testing.T) {
	cases := []struct {
		name string
		err  *Error
	}{
		{
			name: "simple error",
			err:  &Error{Code: ENotFound},
		},
		{
			name: "with op and internal error",
			err: &Error{
				Code: EInvalid,
				Op:   "migration/transform",
				Err:  &Error{Code: EEmptyValue, Msg: "missing email"},
			},
		},
		{
			name: "with a third party error",
			err: &Error{
				Code: EInternal,
				Err:  errors.New("bolt: database not open"),
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			result, err := json.Marshal(c.err)
			require.NoError(t, err)

			got := new(Error)
			require.NoError(t, json.Unmarshal(result, got))
			require.Equal(t, c.err.Error(), got.Error())
			require.Equal(t, c.err.Code, got.Code)
		})
	}
}
