package dto

import (
	"time"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberDTO represents an organization member in API responses
type MemberDTO struct {
	Member string                  `json:"member"`
	Role   models.OrganizationRole `json:"role"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO.
// The user and owner relations must be preloaded when available.
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.UserID,
		Username:  org.User.Username,
		Owner:     org.Owner.Username,
		CreatedAt: org.CreatedAt,
	}
}

// ToMemberDTO converts an OrganizationMember model to MemberDTO. The
// member relation must be preloaded.
func ToMemberDTO(member models.OrganizationMember) MemberDTO {
	return MemberDTO{
		Member: member.Member.Username,
		Role:   member.Role,
	}
}
