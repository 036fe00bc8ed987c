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
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

// CollaboratorHandler coordinates collaborator grant HTTP handlers.
// Access control runs in RequireProjectAction before any of these are
// reached.
type CollaboratorHandler struct {
	collaboratorService *services.CollaboratorService
}

// NewCollaboratorHandler creates a new CollaboratorHandler.
func NewCollaboratorHandler(collaboratorService *services.CollaboratorService) *CollaboratorHandler {
	return &CollaboratorHandler{
		collaboratorService: collaboratorService,
	}
}

// ListCollaborators returns the project's collaborator grants.
func (h *CollaboratorHandler) ListCollaborators(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	params := utils.GetPaginationParams(c)
	collaborators, total, err := h.collaboratorService.ListCollaborators(project.ID, params)
	if err != nil {
		apierrors.InternalError(c, "Failed to list collaborators")
		return
	}

	collaboratorDTOs := make([]dto.CollaboratorDTO, 0, len(collaborators))
	for _, collaborator := range collaborators {
		collaboratorDTOs = append(collaboratorDTOs, dto.ToCollaboratorDTO(collaborator))
	}

	c.JSON(http.StatusOK, gin.H{
		"collaborators": collaboratorDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// AddCollaborator grants a user a role on the project.
func (h *CollaboratorHandler) AddCollaborator(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type AddCollaboratorRequest struct {
		Username string `json:"username" binding:"required"`
		Role     string `json:"role" binding:"required"`
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	role, err := models.ParseProjectRole(req.Role)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project role")
		return
	}

	collaborator, err := h.collaboratorService.AddCollaborator(project.ID, req.Username, role)
	if err != nil {
		respondCollaboratorError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"collaborator": req.Username,
		"role":         collaborator.Role,
	})
}

// UpdateCollaborator changes an existing grant's role.
func (h *CollaboratorHandler) UpdateCollaborator(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type UpdateCollaboratorRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req UpdateCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	role, err := models.ParseProjectRole(req.Role)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project role")
		return
	}

	username := c.Param("username")
	collaborator, err := h.collaboratorService.UpdateCollaborator(project.ID, username, role)
	if err != nil {
		respondCollaboratorError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collaborator": username,
		"role":         collaborator.Role,
	})
}

// RemoveCollaborator deletes a grant.
func (h *CollaboratorHandler) RemoveCollaborator(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	username := c.Param("username")
	if err := h.collaboratorService.RemoveCollaborator(project.ID, username); err != nil {
		respondCollaboratorError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func respondCollaboratorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrCollaboratorIsOwner),
		errors.Is(err, services.ErrCollaboratorIsOrganizationOwner),
		errors.Is(err, services.ErrCollaboratorIsOrganizationAdmin):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCollaboratorExists):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrCollaboratorNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
