package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/permissions"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/storage"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrProjectNameInvalid = errors.New("project name may only contain letters, numbers, underscores, hyphens and dots")
	ErrProjectNameTaken   = errors.New("a project with this name already exists for this owner")
	ErrOwnerNotFound      = errors.New("project owner not found")
	ErrCreateNotAllowed   = errors.New("user is not allowed to create projects for this owner")
)

// ProjectService handles project business logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	orgRepo     repository.OrganizationRepository
	files       *storage.FileStorage
	orgRoles    permissions.OrgRoleMapping
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, orgRepo repository.OrganizationRepository, files *storage.FileStorage) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		orgRepo:     orgRepo,
		files:       files,
		orgRoles:    permissions.DefaultOrgRoleMapping,
	}
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	ActorID uint64
	// OwnerUsername names the account the project is created under; empty
	// means the actor themselves.
	OwnerUsername string
	Name          string
	Description   string
	IsPublic      bool
}

// CreateProject creates a project under the named owner after checking
// the actor may act on that owner's behalf.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if !models.ValidProjectName(input.Name) {
		return nil, ErrProjectNameInvalid
	}

	var owner *models.User
	var err error
	if input.OwnerUsername == "" {
		owner, err = s.userRepo.FindByID(input.ActorID)
		if err != nil {
			return nil, fmt.Errorf("failed to find actor: %w", err)
		}
	} else {
		owner, err = s.userRepo.FindByUsername(input.OwnerUsername)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrOwnerNotFound
			}
			return nil, fmt.Errorf("failed to find owner: %w", err)
		}
	}

	if owner.ID != input.ActorID {
		if err := s.ensureCanCreateFor(input.ActorID, owner); err != nil {
			return nil, err
		}
	}

	if _, err := s.projectRepo.FindByOwnerAndName(owner.ID, input.Name); err == nil {
		return nil, ErrProjectNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check project name: %w", err)
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		IsPublic:    input.IsPublic,
		OwnerID:     owner.ID,
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner")
}

// ensureCanCreateFor verifies the actor may create projects under another
// account: the owner must be an organization the actor owns or holds an
// admin-rank membership in.
func (s *ProjectService) ensureCanCreateFor(actorID uint64, owner *models.User) error {
	if !owner.IsOrganization() {
		return ErrCreateNotAllowed
	}

	org, err := s.orgRepo.FindByUserID(owner.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCreateNotAllowed
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}

	var membership *models.OrganizationRole
	member, err := s.orgRepo.FindMember(owner.ID, actorID)
	if err == nil {
		membership = &member.Role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to find organization membership: %w", err)
	}

	if !permissions.CanCreateProject(actorID, owner, org, membership, s.orgRoles) {
		return ErrCreateNotAllowed
	}
	return nil
}

// GetVisibleProject returns a project as seen by the user. A project the
// user has no role on is reported as not found.
func (s *ProjectService) GetVisibleProject(actorID uint64, projectID uuid.UUID) (*repository.ProjectWithRole, error) {
	project, err := s.projectRepo.FindVisible(actorID, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjects lists all projects the user owns, collaborates on, or can
// reach through an organization; public-only projects are included when
// requested.
func (s *ProjectService) ListProjects(actorID uint64, includePublic bool, page, pageSize int) ([]repository.ProjectWithRole, int64, error) {
	return s.projectRepo.ListVisible(actorID, repository.VisibleProjectsFilter{
		IncludePublic: includePublic,
		Page:          page,
		PageSize:      pageSize,
	})
}

// ListPublicProjects lists public projects regardless of grants.
func (s *ProjectService) ListPublicProjects(actorID uint64, page, pageSize int) ([]repository.ProjectWithRole, int64, error) {
	return s.projectRepo.ListVisible(actorID, repository.VisibleProjectsFilter{
		OnlyPublic: true,
		Page:       page,
		PageSize:   pageSize,
	})
}

// UpdateProjectInput represents input for updating a project. The owner
// is deliberately not updatable through this path.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// UpdateProject updates project metadata.
func (s *ProjectService) UpdateProject(projectID uuid.UUID, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if input.Name != nil && *input.Name != project.Name {
		if !models.ValidProjectName(*input.Name) {
			return nil, ErrProjectNameInvalid
		}
		if _, err := s.projectRepo.FindByOwnerAndName(project.OwnerID, *input.Name); err == nil {
			return nil, ErrProjectNameTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check project name: %w", err)
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.IsPublic != nil {
		project.IsPublic = *input.IsPublic
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.projectRepo.FindByID(project.ID, "Owner")
}

// DeleteProject purges the project's stored files and then removes the
// record together with its collaborator grants. The purge runs first so a
// storage failure aborts the deletion instead of leaving orphaned files
// behind a missing record.
func (s *ProjectService) DeleteProject(projectID uuid.UUID) error {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.files.DeleteProjectFiles(project.ID); err != nil {
		return fmt.Errorf("failed to purge project storage: %w", err)
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}
