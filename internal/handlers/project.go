package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DGEmiljoe/qfieldcloud/internal/dto"
	apierrors "github.com/DGEmiljoe/qfieldcloud/internal/errors"
	"github.com/DGEmiljoe/qfieldcloud/internal/middleware"
	"github.com/DGEmiljoe/qfieldcloud/internal/services"
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

// ProjectHandler coordinates project HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects returns the projects the current user holds a role on.
// Public projects the user has no other relation to are excluded unless
// include-public=true is passed.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	includePublic := c.DefaultQuery("include-public", "false") == "true"
	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListProjects(userID, includePublic, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to list projects")
		return
	}

	projectDTOs := make([]dto.ProjectDTO, 0, len(projects))
	for _, project := range projects {
		projectDTOs = append(projectDTOs, dto.ToProjectWithRoleDTO(project))
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projectDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListPublicProjects returns public projects regardless of the user's
// grants.
func (h *ProjectHandler) ListPublicProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	projects, total, err := h.projectService.ListPublicProjects(userID, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to list projects")
		return
	}

	projectDTOs := make([]dto.ProjectDTO, 0, len(projects))
	for _, project := range projects {
		projectDTOs = append(projectDTOs, dto.ToProjectWithRoleDTO(project))
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projectDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// CreateProject creates a new project for the current user or for an
// organization the user may act on behalf of.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateProjectRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		IsPublic    bool   `json:"is_public"`
		Owner       string `json:"owner"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		ActorID:       userID,
		OwnerUsername: req.Owner,
		Name:          req.Name,
		Description:   req.Description,
		IsPublic:      req.IsPublic,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// GetProject returns the project resolved by RequireProjectAction,
// including the current user's role and its origin.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectWithRoleDTO(project))
}

// UpdateProject updates project metadata. Ownership cannot be changed
// through this endpoint.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	type UpdateProjectRequest struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		IsPublic    *bool   `json:"is_public"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.projectService.UpdateProject(project.ID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*updated))
}

// DeleteProject purges the project's files and removes the record.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	if err := h.projectService.DeleteProject(project.ID); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apierrors.NotFound(c, "Project not found")
			return
		}
		apierrors.OperationFailed(c, "Failed to delete project")
		return
	}

	c.Status(http.StatusNoContent)
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNameInvalid),
		errors.Is(err, services.ErrOwnerNotFound):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCreateNotAllowed):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrProjectNameTaken):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
