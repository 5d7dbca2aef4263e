package migration

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
	"go.uber.org/zap/zaptest"
)

func identity(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
	return d, nil
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "updated", StatusUpdated.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "Status(7)", Status(7).String())
}

func TestFanout_Run(t *testing.T) {
	mutateEmail := func(ids ...string) TransformFunc {
		return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
			for _, id := range ids {
				if d.ID == id {
					d.Set("email", strings.ToUpper(d.Fields["email"].(string)))
				}
			}
			return d, nil
		}
	}

	tests := []struct {
		name      string
		transform TransformFunc
		updated   []string
		statuses  map[string]Status
	}{
		{
			name:      "no-op transform issues no writes",
			transform: identity,
			updated:   nil,
		},
		{
			name:      "exactly the changed documents are written",
			transform: mutateEmail("u003", "u007", "u009"),
			updated:   []string{"u003", "u007", "u009"},
			statuses: map[string]Status{
				"u001": StatusSkipped,
				"u003": StatusUpdated,
				"u007": StatusUpdated,
				"u009": StatusUpdated,
			},
		},
		{
			name: "a transform error is isolated to its document",
			transform: func(ctx context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
				if d.ID == "u005" {
					return nil, errors.New("bad document")
				}
				return mutateEmail("u004", "u006")(ctx, d)
			},
			updated: []string{"u004", "u006"},
			statuses: map[string]Status{
				"u004": StatusUpdated,
				"u005": StatusFailed,
				"u006": StatusUpdated,
			},
		},
		{
			name: "a panic is isolated to its document",
			transform: func(ctx context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
				if d.ID == "u002" {
					panic("unexpected shape")
				}
				return mutateEmail("u001")(ctx, d)
			},
			updated: []string{"u001"},
			statuses: map[string]Status{
				"u001": StatusUpdated,
				"u002": StatusFailed,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newSliceStore(newDocs("users", 10))
			page, err := store.FindDocuments(context.Background(), "users", 10, nil)
			require.NoError(t, err)

			outcomes := NewFanout(zaptest.NewLogger(t), 0).Run(context.Background(), store, page, tt.transform)
			require.Len(t, outcomes, len(page))
			for i, o := range outcomes {
				require.Equal(t, page[i].ID, o.Document.ID, "outcomes are indexed like the page")
				if want, ok := tt.statuses[o.Document.ID]; ok {
					assert.Equal(t, want, o.Status, o.Document.ID)
				}
				if o.Status == StatusFailed {
					require.Error(t, o.Err)
					assert.Equal(t, OpTransform, ierrors.ErrorOp(o.Err))
					assert.False(t, IsFatal(o.Err))
				} else {
					assert.NoError(t, o.Err)
				}
			}
			assert.Equal(t, tt.updated, nilIfEmpty(store.Updates()))
		})
	}
}

func nilIfEmpty(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return s
}

func TestFanout_Run_RejectsIdentityChange(t *testing.T) {
	store := newSliceStore(newDocs("users", 3))
	page, err := store.FindDocuments(context.Background(), "users", 3, nil)
	require.NoError(t, err)

	outcomes := NewFanout(zaptest.NewLogger(t), 0).Run(context.Background(), store, page,
		func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
			switch d.ID {
			case "u001":
				return &docmigrate.Document{ID: "other", Collection: d.Collection, Fields: d.Fields}, nil
			case "u002":
				return nil, nil
			}
			d.Collection = "teams"
			return d, nil
		})

	for _, o := range outcomes {
		assert.Equal(t, StatusFailed, o.Status, o.Document.ID)
		assert.Equal(t, ierrors.EInvalid, ierrors.ErrorCode(o.Err))
	}
	assert.Empty(t, store.Updates())
}

func TestFanout_Run_PersistenceError(t *testing.T) {
	store := newSliceStore(newDocs("users", 4))
	store.UpdateDocumentFn = func(_ context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
		if id == "u002" {
			return nil, &ierrors.Error{Code: ierrors.EConflict, Msg: "duplicate email"}
		}
		return &docmigrate.Document{ID: id, Collection: collection, Fields: fields}, nil
	}
	page, err := store.FindDocuments(context.Background(), "users", 4, nil)
	require.NoError(t, err)

	outcomes := NewFanout(zaptest.NewLogger(t), 2).Run(context.Background(), store, page, func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		return d.Set("email", "same@example.com"), nil
	})

	require.Equal(t, StatusUpdated, outcomes[0].Status)
	require.Equal(t, StatusFailed, outcomes[1].Status)
	assert.Equal(t, OpPersist, ierrors.ErrorOp(outcomes[1].Err))
	assert.Equal(t, ierrors.EConflict, ierrors.ErrorCode(outcomes[1].Err))
	assert.False(t, IsFatal(outcomes[1].Err))
	require.Equal(t, StatusUpdated, outcomes[2].Status)
	require.Equal(t, StatusUpdated, outcomes[3].Status)
}

func TestFanout_Run_IdentityViolation(t *testing.T) {
	store := newSliceStore(newDocs("users", 2))
	store.UpdateDocumentFn = func(_ context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
		return &docmigrate.Document{ID: "u999", Collection: collection, Fields: fields}, nil
	}
	page, err := store.FindDocuments(context.Background(), "users", 2, nil)
	require.NoError(t, err)

	outcomes := NewFanout(zaptest.NewLogger(t), 0).Run(context.Background(), store, page, func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		return d.Set("verified", true), nil
	})

	for _, o := range outcomes {
		require.Equal(t, StatusFailed, o.Status)
		assert.True(t, errors.Is(o.Err, ErrIdentityViolation))
		assert.True(t, IsFatal(o.Err))
	}
}

func TestFanout_Run_JoinsEveryUnit(t *testing.T) {
	store := newSliceStore(newDocs("users", 20))
	var done int32
	store.UpdateDocumentFn = func(_ context.Context, collection, id string, fields docmigrate.Fields) (*docmigrate.Document, error) {
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&done, 1)
		return &docmigrate.Document{ID: id, Collection: collection, Fields: fields}, nil
	}
	page, err := store.FindDocuments(context.Background(), "users", 20, nil)
	require.NoError(t, err)

	outcomes := NewFanout(zaptest.NewLogger(t), 4).Run(context.Background(), store, page, func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		return d.Set("verified", true), nil
	})

	require.Len(t, outcomes, 20)
	require.Equal(t, int32(20), atomic.LoadInt32(&done))
}
