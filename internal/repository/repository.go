package repository

import (
	"github.com/google/uuid"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

// ProjectWithRole is a project row annotated with the requesting user's
// effective role and its origin, as computed by the visibility query.
type ProjectWithRole struct {
	models.Project `gorm:"embedded"`
	OwnerUsername  string             `gorm:"column:owner_username" json:"-"`
	UserRole       models.ProjectRole `gorm:"column:user_role" json:"user_role"`
	UserRoleOrigin models.RoleOrigin  `gorm:"column:user_role_origin" json:"user_role_origin"`
}

// VisibleProjectsFilter holds the options for listing visible projects.
type VisibleProjectsFilter struct {
	// IncludePublic adds public projects the user has no grant on.
	IncludePublic bool
	// OnlyPublic restricts the listing to public projects regardless of
	// grants (the dedicated public listing).
	OnlyPublic bool
	Page       int
	PageSize   int
}

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// Update updates a project
	Update(project *models.Project) error

	// Delete removes a project and its collaborator grants atomically
	Delete(id uuid.UUID) error

	// FindByID finds a project by ID with optional preloading, without
	// any visibility check
	FindByID(id uuid.UUID, preload ...string) (*models.Project, error)

	// FindByOwnerAndName finds a project by its unique (owner, name) pair
	FindByOwnerAndName(ownerID uint64, name string) (*models.Project, error)

	// FindVisible finds a project by ID as seen by the given user;
	// returns gorm.ErrRecordNotFound when the user holds no role on it
	FindVisible(actorID uint64, id uuid.UUID) (*ProjectWithRole, error)

	// ListVisible lists all projects visible to the user in a single
	// query, each annotated with role and origin
	ListVisible(actorID uint64, filter VisibleProjectsFilter) ([]ProjectWithRole, int64, error)

	// AddCollaborator creates a collaborator grant
	AddCollaborator(collaborator *models.ProjectCollaborator) error

	// UpdateCollaborator updates an existing grant's role
	UpdateCollaborator(collaborator *models.ProjectCollaborator) error

	// RemoveCollaborator deletes a grant
	RemoveCollaborator(projectID uuid.UUID, collaboratorID uint64) error

	// FindCollaborator finds a specific grant
	FindCollaborator(projectID uuid.UUID, collaboratorID uint64) (*models.ProjectCollaborator, error)

	// ListCollaborators lists grants on a project, paginated
	ListCollaborators(projectID uuid.UUID, params utils.PaginationParams) ([]models.ProjectCollaborator, int64, error)
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// OrganizationRepository defines the interface for organization data
// access.
type OrganizationRepository interface {
	// CreateWithAccount creates the organization's user account row and
	// the organization itself within a single transaction
	CreateWithAccount(account *models.User, org *models.Organization) error

	// FindByUserID finds an organization by its account user ID
	FindByUserID(userID uint64) (*models.Organization, error)

	// FindByUsername finds an organization by its account username
	FindByUsername(username string) (*models.Organization, error)

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, memberID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, memberID uint64) (*models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}
