package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ProjectRole is the ordered set of roles a user can hold on a project.
// Gates compare ranks, never names, so new roles can be inserted into the
// ladder without touching any permission check.
type ProjectRole int

const (
	RoleReader ProjectRole = iota + 1
	RoleReporter
	RoleEditor
	RoleManager
	RoleAdmin
)

var projectRoleNames = map[ProjectRole]string{
	RoleReader:   "reader",
	RoleReporter: "reporter",
	RoleEditor:   "editor",
	RoleManager:  "manager",
	RoleAdmin:    "admin",
}

var projectRolesByName = map[string]ProjectRole{
	"reader":   RoleReader,
	"reporter": RoleReporter,
	"editor":   RoleEditor,
	"manager":  RoleManager,
	"admin":    RoleAdmin,
}

// ParseProjectRole converts a stored or user-supplied role name.
func ParseProjectRole(name string) (ProjectRole, error) {
	role, ok := projectRolesByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown project role %q", name)
	}
	return role, nil
}

func (r ProjectRole) String() string {
	if name, ok := projectRoleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ProjectRole(%d)", int(r))
}

func (r ProjectRole) Valid() bool {
	_, ok := projectRoleNames[r]
	return ok
}

// AtLeast reports whether the role grants at least the given rank.
func (r ProjectRole) AtLeast(min ProjectRole) bool {
	return r >= min
}

// Value stores the role under its name so rows stay readable and the
// ladder can be renumbered.
func (r ProjectRole) Value() (driver.Value, error) {
	name, ok := projectRoleNames[r]
	if !ok {
		return nil, fmt.Errorf("invalid project role %d", int(r))
	}
	return name, nil
}

func (r *ProjectRole) Scan(value interface{}) error {
	var name string
	switch v := value.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	case nil:
		*r = 0
		return nil
	default:
		return fmt.Errorf("cannot scan %T into ProjectRole", value)
	}

	role, err := ParseProjectRole(name)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

func (r ProjectRole) MarshalJSON() ([]byte, error) {
	name, ok := projectRoleNames[r]
	if !ok {
		return nil, fmt.Errorf("invalid project role %d", int(r))
	}
	return json.Marshal(name)
}

func (r *ProjectRole) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}

	role, err := ParseProjectRole(name)
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// RoleOrigin records why a user holds a role on a project. Public origin
// is read-only by construction and is never upgraded by weaker rules.
type RoleOrigin string

const (
	RoleOriginProjectOwner      RoleOrigin = "project_owner"
	RoleOriginOrganizationOwner RoleOrigin = "organization_owner"
	RoleOriginOrganizationAdmin RoleOrigin = "organization_admin"
	RoleOriginCollaborator      RoleOrigin = "collaborator"
	RoleOriginPublic            RoleOrigin = "public"
)
