package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project corresponds to a directory of stored files under
// projects/{id}/. The owner is a single account, either a user or an
// organization.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_projects_owner_name" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	IsPublic    bool           `gorm:"not null;default:false" json:"is_public"`
	OwnerID     uint64         `gorm:"not null;uniqueIndex:idx_projects_owner_name" json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner         User                  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Collaborators []ProjectCollaborator `gorm:"foreignKey:ProjectID" json:"collaborators,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

var projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9-_.]+$`)

// ValidProjectName allows letters, numbers, underscores, hyphens and dots.
func ValidProjectName(name string) bool {
	return projectNamePattern.MatchString(name)
}
