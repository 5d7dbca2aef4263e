package authorizer

import (
	"github.com/weiplanet/docmigrate"
)

// Authorizer kinds.
const (
	KindSystem = "system"
	KindRoles  = "roles"
)

var _ docmigrate.Authorizer = (*system)(nil)
var _ docmigrate.Authorizer = (*Roles)(nil)

type system struct{}

// System returns the authorizer of trusted background jobs. It allows every
// action on every document and is the only authorizer allowed to touch schemas.
func System() docmigrate.Authorizer {
	return system{}
}

func (system) Allowed(docmigrate.Action, []string) bool { return true }

func (system) Kind() string { return KindSystem }

// Roles authorizes the actions granted to any of its roles.
type Roles struct {
	roles []string
}

// NewRoles returns an authorizer acting as the given roles.
func NewRoles(roles ...string) *Roles {
	return &Roles{roles: roles}
}

// Allowed reports whether one of the permissions grants action to the
// authorizer's roles or to any role.
func (r *Roles) Allowed(a docmigrate.Action, permissions []string) bool {
	for _, p := range permissions {
		if p == docmigrate.Permission(a, docmigrate.RoleAny) {
			return true
		}
		for _, role := range r.roles {
			if p == docmigrate.Permission(a, role) {
				return true
			}
		}
	}
	return false
}

// Kind returns KindRoles.
func (r *Roles) Kind() string { return KindRoles }
