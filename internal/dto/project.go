package dto

import (
	"time"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
)

// ProjectDTO represents a project in API responses. UserRole and
// UserRoleOrigin are only present when the project was resolved for a
// specific user.
type ProjectDTO struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	IsPublic       bool                `json:"is_public"`
	Owner          string              `json:"owner"`
	UserRole       *models.ProjectRole `json:"user_role,omitempty"`
	UserRoleOrigin *models.RoleOrigin  `json:"user_role_origin,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// CollaboratorDTO represents a collaborator grant in API responses
type CollaboratorDTO struct {
	Collaborator string             `json:"collaborator"`
	Role         models.ProjectRole `json:"role"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ToProjectDTO converts a Project model to ProjectDTO. The owner
// relation must be preloaded.
func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		ID:          project.ID.String(),
		Name:        project.Name,
		Description: project.Description,
		IsPublic:    project.IsPublic,
		Owner:       project.Owner.Username,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

// ToProjectWithRoleDTO converts an annotated visibility row to
// ProjectDTO, including the requesting user's role and its origin.
func ToProjectWithRoleDTO(project repository.ProjectWithRole) ProjectDTO {
	dto := ToProjectDTO(project.Project)
	dto.Owner = project.OwnerUsername
	role := project.UserRole
	origin := project.UserRoleOrigin
	dto.UserRole = &role
	dto.UserRoleOrigin = &origin
	return dto
}

// ToCollaboratorDTO converts a ProjectCollaborator model to
// CollaboratorDTO. The collaborator relation must be preloaded.
func ToCollaboratorDTO(collaborator models.ProjectCollaborator) CollaboratorDTO {
	return CollaboratorDTO{
		Collaborator: collaborator.Collaborator.Username,
		Role:         collaborator.Role,
		CreatedAt:    collaborator.CreatedAt,
	}
}
