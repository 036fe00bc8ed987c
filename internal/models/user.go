package models

import (
	"time"

	"gorm.io/gorm"
)

// UserType discriminates between regular user accounts and organization
// accounts. Both live in the users table so a project owner is always a
// single foreign key, whoever it is.
type UserType int16

const (
	TypeUser         UserType = 1
	TypeOrganization UserType = 2
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255)" json:"-"`
	UserType     UserType       `gorm:"not null;default:1" json:"user_type"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Projects       []Project             `gorm:"foreignKey:OwnerID" json:"-"`
	Collaborations []ProjectCollaborator `gorm:"foreignKey:CollaboratorID" json:"-"`
	Memberships    []OrganizationMember  `gorm:"foreignKey:MemberID" json:"-"`
}

func (u *User) IsOrganization() bool {
	return u.UserType == TypeOrganization
}
