package docmigrate

// Attribute types understood by document stores.
const (
	AttributeString   = "string"
	AttributeInteger  = "integer"
	AttributeDouble   = "double"
	AttributeBoolean  = "boolean"
	AttributeDatetime = "datetime"
)

// Index types.
const (
	IndexKey      = "key"
	IndexUnique   = "unique"
	IndexFulltext = "fulltext"
)

// Index sort orders.
const (
	OrderAsc  = "ASC"
	OrderDesc = "DESC"
)

// AttributeDef describes one attribute of a collection schema.
type AttributeDef struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Size     int         `json:"size,omitempty"`
	Required bool        `json:"required,omitempty"`
	Array    bool        `json:"array,omitempty"`
	Signed   bool        `json:"signed,omitempty"`
	Default  interface{} `json:"default,omitempty"`
	Filters  []string    `json:"filters,omitempty"`
}

// IndexDef describes one index of a collection schema.
type IndexDef struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
	Lengths    []int    `json:"lengths,omitempty"`
	Orders     []string `json:"orders,omitempty"`
}

// Collection is an entry of a migration manifest and the schema a document
// store keeps for a collection.
type Collection struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	System     bool           `json:"system,omitempty"`
	Traverse   bool           `json:"traverse,omitempty"`
	Attributes []AttributeDef `json:"attributes,omitempty"`
	Indexes    []IndexDef     `json:"indexes,omitempty"`
}

// Attribute returns the attribute definition with the given id.
func (c *Collection) Attribute(id string) (AttributeDef, bool) {
	for _, a := range c.Attributes {
		if a.ID == id {
			return a, true
		}
	}
	return AttributeDef{}, false
}

// CollectionOption configures a collection created by a document store.
type CollectionOption func(*Collection)

// WithCollectionName sets the display name of the collection. The store
// uses the collection id when no name is given.
func WithCollectionName(name string) CollectionOption {
	return func(c *Collection) {
		if name != "" {
			c.Name = name
		}
	}
}
