package docmigrate

import (
	"fmt"
)

// Action is an operation a permission grants on a document.
type Action string

const (
	// ReadAction is the action for reading a document.
	ReadAction Action = "read"
	// UpdateAction is the action for changing a document.
	UpdateAction Action = "update"
)

// RoleAny matches every role.
const RoleAny = "any"

// Permission returns the permission string granting action to role,
// in the form read("user:42").
func Permission(a Action, role string) string {
	return fmt.Sprintf("%s(%q)", a, role)
}

// Authorizer decides whether the caller may act on documents.
type Authorizer interface {
	// Allowed reports whether action is allowed on a document carrying permissions.
	Allowed(a Action, permissions []string) bool

	// Kind returns the kind of the authorizer.
	Kind() string
}
