package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DGEmiljoe/qfieldcloud/internal/dto"
	apierrors "github.com/DGEmiljoe/qfieldcloud/internal/errors"
	"github.com/DGEmiljoe/qfieldcloud/internal/middleware"
	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/services"
)

// OrganizationHandler coordinates organization HTTP handlers.
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// CreateOrganization creates an organization account owned by the
// current user.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateOrganizationRequest struct {
		Username string `json:"username" binding:"required,min=3,max=50"`
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Username: req.Username,
		OwnerID:  userID,
	})
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.OrganizationDTO{
		ID:        org.UserID,
		Username:  org.User.Username,
		CreatedAt: org.CreatedAt,
	})
}

// ListMembers returns the organization's members.
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	members, err := h.orgService.ListMembers(userID, c.Param("organization"))
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	memberDTOs := make([]dto.MemberDTO, 0, len(members))
	for _, member := range members {
		memberDTOs = append(memberDTOs, dto.ToMemberDTO(member))
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// AddMember adds a user to the organization.
func (h *OrganizationHandler) AddMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type AddMemberRequest struct {
		Username string `json:"username" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.orgService.AddMember(userID, c.Param("organization"), req.Username, models.OrganizationRole(req.Role))
	if err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"member": req.Username,
		"role":   member.Role,
	})
}

// RemoveMember removes a user from the organization.
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.orgService.RemoveMember(userID, c.Param("organization"), c.Param("username")); err != nil {
		respondOrganizationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondOrganizationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrInvalidMemberRole),
		errors.Is(err, services.ErrMemberIsOwner):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrMemberExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrNotOrganizationAdmin):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
