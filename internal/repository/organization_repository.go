package repository

import (
	"errors"
	"fmt"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateAccount is returned when creating the organization's user
	// account fails inside the creation transaction.
	ErrCreateAccount = errors.New("organization repository: create account failed")
	// ErrCreateOrganization is returned when creating the organization row
	// fails inside the creation transaction.
	ErrCreateOrganization = errors.New("organization repository: create organization failed")
)

// GormOrganizationRepository is a GORM implementation of
// OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// CreateWithAccount creates the organization's account row and the
// organization itself atomically.
func (r *GormOrganizationRepository) CreateWithAccount(account *models.User, org *models.Organization) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		account.UserType = models.TypeOrganization

		if err := tx.Create(account).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateAccount, err)
		}

		org.UserID = account.ID

		if err := tx.Create(org).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOrganization, err)
		}

		return nil
	})
}

// FindByUserID finds an organization by its account user ID
func (r *GormOrganizationRepository) FindByUserID(userID uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("user_id = ?", userID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByUsername finds an organization by its account username
func (r *GormOrganizationRepository) FindByUsername(username string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.
		Joins("JOIN users ON users.id = organizations.user_id").
		Where("users.username = ? AND users.user_type = ?", username, models.TypeOrganization).
		First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// AddMember adds a member to an organization
func (r *GormOrganizationRepository) AddMember(member *models.OrganizationMember) error {
	return r.db.Create(member).Error
}

// RemoveMember removes a member from an organization
func (r *GormOrganizationRepository) RemoveMember(organizationID, memberID uint64) error {
	return r.db.Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		Delete(&models.OrganizationMember{}).Error
}

// FindMember finds a specific organization member
func (r *GormOrganizationRepository) FindMember(organizationID, memberID uint64) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.Where("organization_id = ? AND member_id = ?", organizationID, memberID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists all members of an organization
func (r *GormOrganizationRepository) ListMembers(organizationID uint64) ([]models.OrganizationMember, error) {
	var members []models.OrganizationMember
	if err := r.db.Where("organization_id = ?", organizationID).
		Preload("Member").
		Order("created_at").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
