package permissions

import (
	"errors"
	"fmt"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
)

// Action enumerates every operation the gate knows about. Anything else
// reaching the gate is a caller bug, not an authorization failure.
type Action string

const (
	ActionList                Action = "list"
	ActionCreate              Action = "create"
	ActionRetrieve            Action = "retrieve"
	ActionUpdate              Action = "update"
	ActionPartialUpdate       Action = "partial_update"
	ActionDestroy             Action = "destroy"
	ActionPushFile            Action = "push_file"
	ActionListFiles           Action = "list_files"
	ActionManageCollaborators Action = "manage_collaborators"
)

// ErrUnknownAction marks a misconfigured gate call. Callers must surface
// it as an internal error, never as a plain deny.
var ErrUnknownAction = errors.New("unknown gate action")

// Minimum role per object-level action. Comparison is by rank, so roles
// above the minimum are always included.
var minRoleByAction = map[Action]models.ProjectRole{
	ActionRetrieve:            models.RoleReader,
	ActionListFiles:           models.RoleReader,
	ActionPushFile:            models.RoleReporter,
	ActionUpdate:              models.RoleEditor,
	ActionPartialUpdate:       models.RoleEditor,
	ActionDestroy:             models.RoleAdmin,
	ActionManageCollaborators: models.RoleManager,
}

// Can decides whether a resolved role permits an object-level action.
// List is always allowed here because visibility filtering happens in the
// query; create has no resolved role and goes through CanCreateProject.
func Can(action Action, role models.ProjectRole) (bool, error) {
	switch action {
	case ActionList:
		return true, nil
	case ActionCreate:
		return false, fmt.Errorf("%w: create is gated by CanCreateProject", ErrUnknownAction)
	}

	min, ok := minRoleByAction[action]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return role.AtLeast(min), nil
}

// OrgRoleMapping maps an organization membership role to the effective
// project role it grants on the organization's projects. Membership roles
// absent from the mapping grant nothing.
type OrgRoleMapping map[models.OrganizationRole]models.ProjectRole

// DefaultOrgRoleMapping mirrors the production rule: organization admins
// act as project admins, plain members get no implicit role.
var DefaultOrgRoleMapping = OrgRoleMapping{
	models.OrganizationRoleAdmin: models.RoleAdmin,
}

// RoleSources carries everything the resolver needs to know about an
// actor's relationship to a single project.
type RoleSources struct {
	ActorID    uint64
	OwnerID    uint64
	IsPublic   bool
	OwnerIsOrg bool
	// OrgOwnerID and OrgRole are only meaningful when OwnerIsOrg is set.
	OrgOwnerID       uint64
	OrgRole          *models.OrganizationRole
	CollaboratorRole *models.ProjectRole
}

// ResolveRole computes the effective role and its origin, first match
// wins: direct ownership, organization ownership, elevated organization
// membership, collaborator grant, public fallback. Public never upgrades
// a grant and grants read only. ok is false when the actor has no role at
// all, in which case the project does not exist from their point of view.
func ResolveRole(src RoleSources, mapping OrgRoleMapping) (role models.ProjectRole, origin models.RoleOrigin, ok bool) {
	if src.ActorID == src.OwnerID {
		return models.RoleAdmin, models.RoleOriginProjectOwner, true
	}

	if src.OwnerIsOrg {
		if src.ActorID == src.OrgOwnerID {
			return models.RoleAdmin, models.RoleOriginOrganizationOwner, true
		}
		if src.OrgRole != nil {
			if mapped, found := mapping[*src.OrgRole]; found {
				return mapped, models.RoleOriginOrganizationAdmin, true
			}
		}
	}

	if src.CollaboratorRole != nil {
		return *src.CollaboratorRole, models.RoleOriginCollaborator, true
	}

	if src.IsPublic {
		return models.RoleReader, models.RoleOriginPublic, true
	}

	return 0, "", false
}

// CanCreateProject decides whether the actor may create a project under
// the given owner: themselves, an organization they own, or an
// organization where their membership maps to an admin-rank role.
func CanCreateProject(actorID uint64, owner *models.User, org *models.Organization, membership *models.OrganizationRole, mapping OrgRoleMapping) bool {
	if owner == nil {
		return false
	}
	if actorID == owner.ID {
		return true
	}
	if !owner.IsOrganization() || org == nil {
		return false
	}
	if org.OwnerID == actorID {
		return true
	}
	if membership != nil {
		if mapped, found := mapping[*membership]; found {
			return mapped.AtLeast(models.RoleAdmin)
		}
	}
	return false
}
