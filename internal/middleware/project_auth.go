package middleware

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/constants"
	"github.com/DGEmiljoe/qfieldcloud/internal/database"
	apierrors "github.com/DGEmiljoe/qfieldcloud/internal/errors"
	"github.com/DGEmiljoe/qfieldcloud/internal/permissions"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
)

// RequireProjectAction resolves the actor's effective role on the project
// named in the URL and gates the given action against it.
//
// A project the actor holds no role on is hidden: project endpoints
// respond 404 so its existence is not leaked, while file endpoints
// respond 403 to match their contract. An action the gate does not
// recognize is a programming error and responds 500, never 403.
func RequireProjectAction(action permissions.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := uuid.Parse(c.Param("projectid"))
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		projectRepo := repository.NewProjectRepository(database.GetDB())
		project, err := projectRepo.FindVisible(userID, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				if action == permissions.ActionPushFile || action == permissions.ActionListFiles {
					apierrors.Forbidden(c, "")
				} else {
					apierrors.NotFound(c, "Project not found")
				}
			} else {
				apierrors.InternalError(c, "Failed to resolve project access")
			}
			c.Abort()
			return
		}

		allowed, err := permissions.Can(action, project.UserRole)
		if err != nil {
			log.Printf("authorization gate misconfigured: %v", err)
			apierrors.Misconfigured(c, "")
			c.Abort()
			return
		}
		if !allowed {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, *project)
		c.Set(constants.ContextKeyProjectRole, project.UserRole)
		c.Set(constants.ContextKeyProjectRoleOrigin, project.UserRoleOrigin)
		c.Next()
	}
}

// GetProject retrieves the resolved project from context
func GetProject(c *gin.Context) (repository.ProjectWithRole, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return repository.ProjectWithRole{}, false
	}

	project, ok := value.(repository.ProjectWithRole)
	return project, ok
}
