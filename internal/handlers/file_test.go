package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/constants"
	"github.com/DGEmiljoe/qfieldcloud/internal/database"
	"github.com/DGEmiljoe/qfieldcloud/internal/middleware"
	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/permissions"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/services"
	"github.com/DGEmiljoe/qfieldcloud/internal/storage"
)

// FileHandlerTestSuite exercises the file routes through the middleware
// chain. File endpoints respond 403 to users without a role, unlike the
// project endpoints' 404.
type FileHandlerTestSuite struct {
	suite.Suite
	db    *gorm.DB
	files *storage.FileStorage

	projectService      *services.ProjectService
	collaboratorService *services.CollaboratorService

	alice, bob, frank models.User
	project           *models.Project
}

func (suite *FileHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Project{},
		&models.ProjectCollaborator{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	suite.files = storage.NewFileStorage(afero.NewMemMapFs(), "/storage")

	projectRepo := repository.NewProjectRepository(suite.db)
	userRepo := repository.NewUserRepository(suite.db)
	orgRepo := repository.NewOrganizationRepository(suite.db)
	suite.projectService = services.NewProjectService(projectRepo, userRepo, orgRepo, suite.files)
	suite.collaboratorService = services.NewCollaboratorService(projectRepo, userRepo, orgRepo)

	gin.SetMode(gin.TestMode)

	suite.alice = models.User{Username: "alice", UserType: models.TypeUser}
	suite.bob = models.User{Username: "bob", UserType: models.TypeUser}
	suite.frank = models.User{Username: "frank", UserType: models.TypeUser}
	for _, u := range []*models.User{&suite.alice, &suite.bob, &suite.frank} {
		suite.Require().NoError(suite.db.Create(u).Error)
	}

	suite.project, err = suite.projectService.CreateProject(services.CreateProjectInput{
		ActorID: suite.alice.ID,
		Name:    "survey",
	})
	suite.Require().NoError(err)
}

func (suite *FileHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *FileHandlerTestSuite) routerAs(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
	})

	fileHandler := NewFileHandler(suite.files)
	files := r.Group("/api/v1/files")
	{
		files.GET("/:projectid", middleware.RequireProjectAction(permissions.ActionListFiles), fileHandler.ListFiles)
		files.POST("/:projectid/*filename", middleware.RequireProjectAction(permissions.ActionPushFile), fileHandler.PushFile)
	}

	return r
}

func (suite *FileHandlerTestSuite) pushFile(userID uint64, filename, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	suite.Require().NoError(err)
	_, err = part.Write([]byte(content))
	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())

	url := fmt.Sprintf("/api/v1/files/%s/%s", suite.project.ID, filename)
	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	suite.routerAs(userID).ServeHTTP(w, req)
	return w
}

func (suite *FileHandlerTestSuite) listFiles(userID uint64) *httptest.ResponseRecorder {
	url := fmt.Sprintf("/api/v1/files/%s", suite.project.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	suite.routerAs(userID).ServeHTTP(w, req)
	return w
}

func (suite *FileHandlerTestSuite) grant(username string, role models.ProjectRole) {
	_, err := suite.collaboratorService.AddCollaborator(suite.project.ID, username, role)
	suite.Require().NoError(err)
}

func (suite *FileHandlerTestSuite) TestReporterCanPush() {
	suite.grant("bob", models.RoleReporter)

	w := suite.pushFile(suite.bob.ID, "project.qgs", "qgis project")
	suite.Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Equal("project.qgs", response["name"])
	suite.EqualValues(len("qgis project"), response["size"])
}

func (suite *FileHandlerTestSuite) TestReaderCannotPush() {
	suite.grant("bob", models.RoleReader)

	w := suite.pushFile(suite.bob.ID, "project.qgs", "qgis project")
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *FileHandlerTestSuite) TestReaderCanListFiles() {
	suite.grant("bob", models.RoleReader)

	w := suite.pushFile(suite.alice.ID, "project.qgs", "qgis project")
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.listFiles(suite.bob.ID)
	suite.Equal(http.StatusOK, w.Code)

	var response struct {
		Files []storage.FileInfo `json:"files"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Files, 1)
	suite.Equal("project.qgs", response.Files[0].Name)
}

// A user without any role gets 403 on file endpoints, not the project
// endpoints' 404.
func (suite *FileHandlerTestSuite) TestNoRoleGetsForbidden() {
	w := suite.listFiles(suite.frank.ID)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.pushFile(suite.frank.ID, "project.qgs", "data")
	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *FileHandlerTestSuite) TestPushNestedFilename() {
	suite.grant("bob", models.RoleReporter)

	w := suite.pushFile(suite.bob.ID, "layers/roads.gpkg", "geopackage")
	suite.Equal(http.StatusCreated, w.Code)

	listed, err := suite.files.List(suite.project.ID)
	suite.Require().NoError(err)
	suite.Require().Len(listed, 1)
	suite.Equal("layers/roads.gpkg", listed[0].Name)
}

func TestFileHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(FileHandlerTestSuite))
}
