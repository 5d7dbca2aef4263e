package migration

import (
	"fmt"

	"github.com/weiplanet/docmigrate"
	ierrors "github.com/weiplanet/docmigrate/kit/platform/errors"
)

// System collection ids.
const (
	CollectionMetadata = "_metadata"
	CollectionAudit    = "audit"
	CollectionAbuse    = "abuse"
)

// SystemCollections returns the bookkeeping collections every project has.
// The slice is new on every call.
func SystemCollections() []docmigrate.Collection {
	return []docmigrate.Collection{
		{
			ID:     CollectionMetadata,
			Name:   "Metadata",
			System: true,
			Attributes: []docmigrate.AttributeDef{
				{ID: "name", Type: docmigrate.AttributeString, Size: 256, Required: true},
				{ID: "attributes", Type: docmigrate.AttributeString, Size: 1000000},
				{ID: "indexes", Type: docmigrate.AttributeString, Size: 1000000},
			},
		},
		{
			ID:       CollectionAudit,
			Name:     "Audit",
			System:   true,
			Traverse: true,
			Attributes: []docmigrate.AttributeDef{
				{ID: "userId", Type: docmigrate.AttributeString, Size: 255, Required: true},
				{ID: "event", Type: docmigrate.AttributeString, Size: 255, Required: true},
				{ID: "resource", Type: docmigrate.AttributeString, Size: 255},
				{ID: "userAgent", Type: docmigrate.AttributeString, Size: 65534},
				{ID: "ip", Type: docmigrate.AttributeString, Size: 45},
				{ID: "location", Type: docmigrate.AttributeString, Size: 45},
				{ID: "time", Type: docmigrate.AttributeDatetime, Required: true},
				{ID: "data", Type: docmigrate.AttributeString, Size: 16777216},
			},
			Indexes: []docmigrate.IndexDef{
				{ID: "index_1", Type: docmigrate.IndexKey, Attributes: []string{"event"}, Orders: []string{docmigrate.OrderAsc}},
				{ID: "index_2", Type: docmigrate.IndexKey, Attributes: []string{"resource", "event"}, Orders: []string{docmigrate.OrderAsc, docmigrate.OrderAsc}},
				{ID: "index_3", Type: docmigrate.IndexKey, Attributes: []string{"userId", "event"}, Orders: []string{docmigrate.OrderAsc, docmigrate.OrderAsc}},
			},
		},
		{
			ID:     CollectionAbuse,
			Name:   "Abuse",
			System: true,
			Attributes: []docmigrate.AttributeDef{
				{ID: "key", Type: docmigrate.AttributeString, Size: 255, Required: true},
				{ID: "time", Type: docmigrate.AttributeInteger, Required: true},
				{ID: "count", Type: docmigrate.AttributeInteger, Required: true},
			},
			Indexes: []docmigrate.IndexDef{
				{ID: "unique1", Type: docmigrate.IndexUnique, Attributes: []string{"key", "time"}, Orders: []string{docmigrate.OrderAsc, docmigrate.OrderAsc}},
				{ID: "index2", Type: docmigrate.IndexKey, Attributes: []string{"time"}, Orders: []string{docmigrate.OrderDesc}},
			},
		},
	}
}

// Manifest is the ordered set of collections a runner provisions and traverses.
// It is composed of the fixed system collections followed by a configurable set.
type Manifest struct {
	collections []docmigrate.Collection
	byID        map[string]int
}

// NewManifest composes the system collections with the configurable
// collections. Collection ids must be unique across both sets.
func NewManifest(system, configurable []docmigrate.Collection) (*Manifest, error) {
	m := &Manifest{
		byID: make(map[string]int, len(system)+len(configurable)),
	}
	for _, set := range [][]docmigrate.Collection{system, configurable} {
		for _, c := range set {
			if c.ID == "" {
				return nil, &ierrors.Error{
					Code: ierrors.EInvalid,
					Msg:  "manifest collection has no id",
				}
			}
			if _, ok := m.byID[c.ID]; ok {
				return nil, &ierrors.Error{
					Code: ierrors.EInvalid,
					Msg:  fmt.Sprintf("collection %q is declared twice in the manifest", c.ID),
				}
			}
			m.byID[c.ID] = len(m.collections)
			m.collections = append(m.collections, c)
		}
	}
	return m, nil
}

// DefaultManifest returns the manifest of the system collections and configurable.
func DefaultManifest(configurable ...docmigrate.Collection) (*Manifest, error) {
	return NewManifest(SystemCollections(), configurable)
}

// Collections returns the collections of the manifest in order.
func (m *Manifest) Collections() []docmigrate.Collection {
	out := make([]docmigrate.Collection, len(m.collections))
	copy(out, m.collections)
	return out
}

// Traversed returns the collections flagged for traversal, in order.
func (m *Manifest) Traversed() []docmigrate.Collection {
	var out []docmigrate.Collection
	for _, c := range m.collections {
		if c.Traverse {
			out = append(out, c)
		}
	}
	return out
}

// Collection returns the collection with the given id.
func (m *Manifest) Collection(id string) (docmigrate.Collection, bool) {
	i, ok := m.byID[id]
	if !ok {
		return docmigrate.Collection{}, false
	}
	return m.collections[i], true
}
