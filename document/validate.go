package document

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/weiplanet/docmigrate"
	"github.com/weiplanet/docmigrate/change"
	"github.com/weiplanet/docmigrate/kit/platform/errors"
	"github.com/weiplanet/docmigrate/kv"
)

func invalid(format string, args ...interface{}) error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// validateSchema checks that the indexes of c only reference attributes of c.
func validateSchema(c *docmigrate.Collection) error {
	seen := map[string]bool{}
	for _, a := range c.Attributes {
		if a.ID == "" {
			return invalid("collection %q has an attribute without id", c.ID)
		}
		if seen[a.ID] {
			return invalid("collection %q has duplicate attribute %q", c.ID, a.ID)
		}
		seen[a.ID] = true

		switch a.Type {
		case docmigrate.AttributeString, docmigrate.AttributeInteger, docmigrate.AttributeDouble,
			docmigrate.AttributeBoolean, docmigrate.AttributeDatetime:
		default:
			return invalid("attribute %q has unknown type %q", a.ID, a.Type)
		}
	}

	for _, idx := range c.Indexes {
		switch idx.Type {
		case docmigrate.IndexKey, docmigrate.IndexUnique, docmigrate.IndexFulltext:
		default:
			return invalid("index %q has unknown type %q", idx.ID, idx.Type)
		}
		if len(idx.Attributes) == 0 {
			return invalid("index %q has no attributes", idx.ID)
		}
		for _, attr := range idx.Attributes {
			if !seen[attr] {
				return invalid("index %q references unknown attribute %q", idx.ID, attr)
			}
		}
	}
	return nil
}

// validate checks fields against the attributes of c. Fields without an
// attribute definition are accepted as is.
func validate(c *docmigrate.Collection, fields docmigrate.Fields) error {
	for _, a := range c.Attributes {
		v, ok := fields[a.ID]
		if !ok || v == nil {
			if a.Required {
				return invalid("attribute %q is required", a.ID)
			}
			continue
		}

		if !a.Array {
			if err := validateValue(a, v); err != nil {
				return err
			}
			continue
		}

		if change.KindOf(v) != change.KindList {
			return invalid("attribute %q must be an array", a.ID)
		}
		l, _ := v.([]interface{})
		if l == nil {
			// typed slices are round tripped through json
			b, err := json.Marshal(v)
			if err != nil {
				return invalid("attribute %q: %v", a.ID, err)
			}
			if err := json.Unmarshal(b, &l); err != nil {
				return invalid("attribute %q: %v", a.ID, err)
			}
		}
		for _, e := range l {
			if err := validateValue(a, e); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateValue(a docmigrate.AttributeDef, v interface{}) error {
	switch a.Type {
	case docmigrate.AttributeString:
		s, ok := v.(string)
		if !ok {
			return invalid("attribute %q must be a string", a.ID)
		}
		if a.Size > 0 && len(s) > a.Size {
			return invalid("attribute %q must be at most %d characters", a.ID, a.Size)
		}
	case docmigrate.AttributeInteger:
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) {
			return invalid("attribute %q must be an integer", a.ID)
		}
		if !a.Signed && f < 0 {
			return invalid("attribute %q must not be negative", a.ID)
		}
	case docmigrate.AttributeDouble:
		if _, ok := toFloat(v); !ok {
			return invalid("attribute %q must be a number", a.ID)
		}
	case docmigrate.AttributeBoolean:
		if _, ok := v.(bool); !ok {
			return invalid("attribute %q must be a boolean", a.ID)
		}
	case docmigrate.AttributeDatetime:
		s, ok := v.(string)
		if !ok {
			return invalid("attribute %q must be a datetime string", a.ID)
		}
		if _, err := time.Parse(time.RFC3339Nano, s); err != nil {
			return invalid("attribute %q must be an RFC3339 datetime", a.ID)
		}
	}
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	if change.KindOf(v) != change.KindNumber {
		return 0, false
	}
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// uniqueKey returns the index key of d for idx, or nil when every indexed
// attribute of d is null.
func uniqueKey(idx docmigrate.IndexDef, fields docmigrate.Fields) ([]byte, error) {
	vals := make([]interface{}, len(idx.Attributes))
	empty := true
	for i, attr := range idx.Attributes {
		v := fields[attr]
		if v != nil {
			empty = false
		}
		if f, ok := toFloat(v); ok {
			v = f
		}
		vals[i] = v
	}
	if empty {
		return nil, nil
	}
	return json.Marshal(vals)
}

// putUniqueIndexes checks and maintains the unique indexes of c for d. prev is
// the stored version of d when it is being updated.
func (s *Store) putUniqueIndexes(tx kv.Tx, c *docmigrate.Collection, d, prev *docmigrate.Document) error {
	for _, idx := range c.Indexes {
		if idx.Type != docmigrate.IndexUnique {
			continue
		}

		b, err := tx.Bucket(uniqueBucket(s.namespace, c.ID, idx.ID))
		if err != nil {
			return err
		}

		key, err := uniqueKey(idx, d.Fields)
		if err != nil {
			return invalid("index %q: %v", idx.ID, err)
		}

		if key != nil {
			owner, err := b.Get(key)
			switch {
			case err == nil && string(owner) != d.ID:
				return &errors.Error{
					Code: errors.EConflict,
					Msg:  fmt.Sprintf("document %q violates unique index %q", d.ID, idx.ID),
				}
			case err != nil && !kv.IsNotFound(err):
				return err
			}
		}

		if prev != nil {
			prevKey, err := uniqueKey(idx, prev.Fields)
			if err != nil {
				return err
			}
			if prevKey != nil && string(prevKey) != string(key) {
				if err := b.Delete(prevKey); err != nil {
					return err
				}
			}
		}

		if key != nil {
			if err := b.Put(key, []byte(d.ID)); err != nil {
				return err
			}
		}
	}
	return nil
}
