package models

import "time"

// Organization extends a users row of type organization with its owning
// user. Exactly one owner per organization.
type Organization struct {
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	OwnerID   uint64    `gorm:"not null;index" json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User    User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Owner   User                 `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
}
