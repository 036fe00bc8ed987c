package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

var (
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrCollaboratorExists   = errors.New("user is already a collaborator on this project")
	ErrInvalidRole          = errors.New("invalid project role")

	ErrCollaboratorIsOwner             = errors.New("cannot add the project owner as a collaborator")
	ErrCollaboratorIsOrganizationOwner = errors.New("cannot add the owner of the owning organization as a collaborator")
	ErrCollaboratorIsOrganizationAdmin = errors.New("cannot add an admin of the owning organization as a collaborator")
)

// CollaboratorService manages collaborator grants on projects.
type CollaboratorService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	orgRepo     repository.OrganizationRepository
}

// NewCollaboratorService creates a new CollaboratorService.
func NewCollaboratorService(projectRepo repository.ProjectRepository, userRepo repository.UserRepository, orgRepo repository.OrganizationRepository) *CollaboratorService {
	return &CollaboratorService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		orgRepo:     orgRepo,
	}
}

// AddCollaborator grants a user a role on a project. Accounts that
// already hold a stronger role through ownership or organization rank
// cannot be added, matching the resolver precedence.
func (s *CollaboratorService) AddCollaborator(projectID uuid.UUID, username string, role models.ProjectRole) (*models.ProjectCollaborator, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	project, err := s.projectRepo.FindByID(projectID, "Owner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.checkCollaboratorEligible(project, user); err != nil {
		return nil, err
	}

	if _, err := s.projectRepo.FindCollaborator(projectID, user.ID); err == nil {
		return nil, ErrCollaboratorExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check collaborator: %w", err)
	}

	collaborator := &models.ProjectCollaborator{
		ProjectID:      projectID,
		CollaboratorID: user.ID,
		Role:           role,
	}

	if err := s.projectRepo.AddCollaborator(collaborator); err != nil {
		return nil, fmt.Errorf("failed to add collaborator: %w", err)
	}

	return collaborator, nil
}

// checkCollaboratorEligible rejects grants for accounts whose role
// already comes from a stronger origin.
func (s *CollaboratorService) checkCollaboratorEligible(project *models.Project, user *models.User) error {
	if project.OwnerID == user.ID {
		return ErrCollaboratorIsOwner
	}

	if !project.Owner.IsOrganization() {
		return nil
	}

	org, err := s.orgRepo.FindByUserID(project.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find owning organization: %w", err)
	}

	if org.OwnerID == user.ID {
		return ErrCollaboratorIsOrganizationOwner
	}

	member, err := s.orgRepo.FindMember(project.OwnerID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find organization membership: %w", err)
	}
	if member.Role == models.OrganizationRoleAdmin {
		return ErrCollaboratorIsOrganizationAdmin
	}

	return nil
}

// UpdateCollaborator changes an existing grant's role.
func (s *CollaboratorService) UpdateCollaborator(projectID uuid.UUID, username string, role models.ProjectRole) (*models.ProjectCollaborator, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollaboratorNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	collaborator, err := s.projectRepo.FindCollaborator(projectID, user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollaboratorNotFound
		}
		return nil, fmt.Errorf("failed to find collaborator: %w", err)
	}

	collaborator.Role = role
	if err := s.projectRepo.UpdateCollaborator(collaborator); err != nil {
		return nil, fmt.Errorf("failed to update collaborator: %w", err)
	}

	return collaborator, nil
}

// RemoveCollaborator deletes a grant.
func (s *CollaboratorService) RemoveCollaborator(projectID uuid.UUID, username string) error {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollaboratorNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.projectRepo.FindCollaborator(projectID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollaboratorNotFound
		}
		return fmt.Errorf("failed to find collaborator: %w", err)
	}

	if err := s.projectRepo.RemoveCollaborator(projectID, user.ID); err != nil {
		return fmt.Errorf("failed to remove collaborator: %w", err)
	}

	return nil
}

// ListCollaborators lists grants on a project, paginated.
func (s *CollaboratorService) ListCollaborators(projectID uuid.UUID, params utils.PaginationParams) ([]models.ProjectCollaborator, int64, error) {
	collaborators, total, err := s.projectRepo.ListCollaborators(projectID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list collaborators: %w", err)
	}
	return collaborators, total, nil
}
