package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrMemberNotFound       = errors.New("organization member not found")
	ErrMemberExists         = errors.New("user is already a member of the organization")
	ErrMemberIsOwner        = errors.New("cannot add the organization owner as a member")
	ErrNotOrganizationAdmin = errors.New("only the organization owner or an admin member can manage members")
	ErrInvalidMemberRole    = errors.New("invalid organization role")
)

// OrganizationService handles organization business logic.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// CreateOrganizationInput represents input for creating an organization.
type CreateOrganizationInput struct {
	Username string
	OwnerID  uint64
}

// CreateOrganization creates an organization account owned by the actor.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrInvalidUsername
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	account := &models.User{
		Username: username,
		UserType: models.TypeOrganization,
	}
	org := &models.Organization{
		OwnerID: input.OwnerID,
	}

	if err := s.orgRepo.CreateWithAccount(account, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	org.User = *account
	return org, nil
}

// AddMember adds a user to the organization. Only the organization owner
// or an admin member may manage membership; the owner cannot be added as
// a member of their own organization.
func (s *OrganizationService) AddMember(actorID uint64, orgUsername, memberUsername string, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if role != models.OrganizationRoleAdmin && role != models.OrganizationRoleMember {
		return nil, ErrInvalidMemberRole
	}

	org, err := s.findOrganization(orgUsername)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCanManageMembers(actorID, org); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByUsername(memberUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.ID == org.OwnerID {
		return nil, ErrMemberIsOwner
	}

	if _, err := s.orgRepo.FindMember(org.UserID, user.ID); err == nil {
		return nil, ErrMemberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := &models.OrganizationMember{
		OrganizationID: org.UserID,
		MemberID:       user.ID,
		Role:           role,
	}

	if err := s.orgRepo.AddMember(member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	return member, nil
}

// RemoveMember removes a user from the organization.
func (s *OrganizationService) RemoveMember(actorID uint64, orgUsername, memberUsername string) error {
	org, err := s.findOrganization(orgUsername)
	if err != nil {
		return err
	}

	if err := s.ensureCanManageMembers(actorID, org); err != nil {
		return err
	}

	user, err := s.userRepo.FindByUsername(memberUsername)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if _, err := s.orgRepo.FindMember(org.UserID, user.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}

	if err := s.orgRepo.RemoveMember(org.UserID, user.ID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ListMembers lists an organization's members; the actor must be able to
// manage membership.
func (s *OrganizationService) ListMembers(actorID uint64, orgUsername string) ([]models.OrganizationMember, error) {
	org, err := s.findOrganization(orgUsername)
	if err != nil {
		return nil, err
	}

	if err := s.ensureCanManageMembers(actorID, org); err != nil {
		return nil, err
	}

	members, err := s.orgRepo.ListMembers(org.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

func (s *OrganizationService) findOrganization(username string) (*models.Organization, error) {
	org, err := s.orgRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

func (s *OrganizationService) ensureCanManageMembers(actorID uint64, org *models.Organization) error {
	if org.OwnerID == actorID {
		return nil
	}

	member, err := s.orgRepo.FindMember(org.UserID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationAdmin
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}
	if member.Role != models.OrganizationRoleAdmin {
		return ErrNotOrganizationAdmin
	}

	return nil
}
