package models

import "time"

type OrganizationRole string

const (
	OrganizationRoleAdmin  OrganizationRole = "admin"
	OrganizationRoleMember OrganizationRole = "member"
)

// OrganizationMember links a user to an organization. The composite
// primary key keeps a single authoritative row per (organization, member)
// pair even under concurrent inserts.
type OrganizationMember struct {
	OrganizationID uint64           `gorm:"primarykey" json:"organization_id"`
	MemberID       uint64           `gorm:"primarykey" json:"member_id"`
	Role           OrganizationRole `gorm:"type:varchar(10);not null;default:'member'" json:"role"`
	CreatedAt      time.Time        `json:"created_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID;references:UserID" json:"organization,omitempty"`
	Member       User         `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}
