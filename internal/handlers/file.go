package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apierrors "github.com/DGEmiljoe/qfieldcloud/internal/errors"
	"github.com/DGEmiljoe/qfieldcloud/internal/middleware"
	"github.com/DGEmiljoe/qfieldcloud/internal/storage"
)

// FileHandler coordinates project file HTTP handlers. Access control
// runs in RequireProjectAction before any of these are reached.
type FileHandler struct {
	files *storage.FileStorage
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(files *storage.FileStorage) *FileHandler {
	return &FileHandler{
		files: files,
	}
}

// PushFile stores an uploaded file under the project's storage prefix.
// The target file name comes from the URL path, so nested names like
// layers/roads.gpkg are allowed.
func (h *FileHandler) PushFile(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	filename := strings.TrimPrefix(c.Param("filename"), "/")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "Missing file upload")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read file upload")
		return
	}
	defer f.Close()

	size, err := h.files.Save(project.ID, filename, f)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilename) {
			apierrors.BadRequest(c, err.Error())
			return
		}
		apierrors.InternalError(c, "Failed to store file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"name": filename,
		"size": size,
	})
}

// ListFiles returns the files stored under the project's prefix.
func (h *FileHandler) ListFiles(c *gin.Context) {
	project, exists := middleware.GetProject(c)
	if !exists {
		apierrors.InternalError(c, "Project not found in context")
		return
	}

	files, err := h.files.List(project.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list files")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files": files,
	})
}
