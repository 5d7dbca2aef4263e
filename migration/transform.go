package migration

import (
	"context"
	"strings"

	"github.com/weiplanet/docmigrate"
)

// Chain returns a transform applying transforms in order. It stops at the
// first error.
func Chain(transforms ...TransformFunc) TransformFunc {
	return func(ctx context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		var err error
		for _, t := range transforms {
			if d, err = t(ctx, d); err != nil {
				return nil, err
			}
			if d == nil {
				return nil, nil
			}
		}
		return d, nil
	}
}

// ForCollection returns a transform applying t to documents of collection
// and leaving the others unchanged.
func ForCollection(collection string, t TransformFunc) TransformFunc {
	return func(ctx context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		if d.Collection != collection {
			return d, nil
		}
		return t(ctx, d)
	}
}

// RenameField moves the value of field from to field to. Documents without
// from are unchanged; an existing to is overwritten.
func RenameField(from, to string) TransformFunc {
	return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		v, ok := d.Fields[from]
		if !ok {
			return d, nil
		}
		delete(d.Fields, from)
		d.Set(to, v)
		return d, nil
	}
}

// SetDefault sets field to v on documents where it is missing or null.
func SetDefault(field string, v interface{}) TransformFunc {
	return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		if cur, ok := d.Fields[field]; ok && cur != nil {
			return d, nil
		}
		d.Set(field, v)
		return d, nil
	}
}

// RemoveField deletes field.
func RemoveField(field string) TransformFunc {
	return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		delete(d.Fields, field)
		return d, nil
	}
}

// LowercaseField lowercases the string value of field.
func LowercaseField(field string) TransformFunc {
	return func(_ context.Context, d *docmigrate.Document) (*docmigrate.Document, error) {
		if s, ok := d.Fields[field].(string); ok {
			d.Set(field, strings.ToLower(s))
		}
		return d, nil
	}
}
