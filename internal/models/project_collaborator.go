package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCollaborator grants a user a role on a project. The composite
// primary key guarantees at most one active grant per (project, user)
// pair; concurrent creations resolve to one winner and one conflict.
type ProjectCollaborator struct {
	ProjectID      uuid.UUID   `gorm:"type:uuid;primarykey" json:"project_id"`
	CollaboratorID uint64      `gorm:"primarykey" json:"collaborator_id"`
	Role           ProjectRole `gorm:"type:varchar(10);not null" json:"role"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Relations
	Project      Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Collaborator User    `gorm:"foreignKey:CollaboratorID" json:"collaborator,omitempty"`
}
