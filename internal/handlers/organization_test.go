package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/constants"
	"github.com/DGEmiljoe/qfieldcloud/internal/database"
	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/services"
)

type orgTestEnv struct {
	db         *gorm.DB
	handler    *OrganizationHandler
	orgService *services.OrganizationService

	owner, admin, member, outsider models.User
}

func setupOrgTestEnv(t *testing.T) orgTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	orgService := services.NewOrganizationService(
		repository.NewOrganizationRepository(db),
		repository.NewUserRepository(db),
	)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	env := orgTestEnv{
		db:         db,
		handler:    NewOrganizationHandler(orgService),
		orgService: orgService,
	}

	env.owner = models.User{Username: "owner", UserType: models.TypeUser}
	env.admin = models.User{Username: "admin-member", UserType: models.TypeUser}
	env.member = models.User{Username: "plain-member", UserType: models.TypeUser}
	env.outsider = models.User{Username: "outsider", UserType: models.TypeUser}
	for _, u := range []*models.User{&env.owner, &env.admin, &env.member, &env.outsider} {
		require.NoError(t, db.Create(u).Error)
	}

	gin.SetMode(gin.TestMode)

	return env
}

func (env orgTestEnv) routerAs(userID uint64) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, userID)
	})

	orgs := r.Group("/api/v1/organizations")
	{
		orgs.POST("", env.handler.CreateOrganization)
		orgs.GET("/:organization/members", env.handler.ListMembers)
		orgs.POST("/:organization/members", env.handler.AddMember)
		orgs.DELETE("/:organization/members/:username", env.handler.RemoveMember)
	}

	return r
}

func orgRequest(t *testing.T, r *gin.Engine, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if payload != nil {
		body, err := json.Marshal(payload)
		require.NoError(t, err)
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOrganizationHandler_Create(t *testing.T) {
	env := setupOrgTestEnv(t)

	w := orgRequest(t, env.routerAs(env.owner.ID), http.MethodPost, "/api/v1/organizations", map[string]string{
		"username": "geocorp",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "geocorp", response["username"])

	// The account name is shared with users, so clashes are conflicts.
	w = orgRequest(t, env.routerAs(env.owner.ID), http.MethodPost, "/api/v1/organizations", map[string]string{
		"username": "geocorp",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	w = orgRequest(t, env.routerAs(env.owner.ID), http.MethodPost, "/api/v1/organizations", map[string]string{
		"username": "outsider",
	})
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestOrganizationHandler_MemberManagement(t *testing.T) {
	env := setupOrgTestEnv(t)

	_, err := env.orgService.CreateOrganization(services.CreateOrganizationInput{
		Username: "geocorp",
		OwnerID:  env.owner.ID,
	})
	require.NoError(t, err)

	// The owner adds an admin member.
	w := orgRequest(t, env.routerAs(env.owner.ID), http.MethodPost, "/api/v1/organizations/geocorp/members", map[string]string{
		"username": "admin-member",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// The admin member can add further members.
	w = orgRequest(t, env.routerAs(env.admin.ID), http.MethodPost, "/api/v1/organizations/geocorp/members", map[string]string{
		"username": "plain-member",
		"role":     "member",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// A plain member cannot.
	w = orgRequest(t, env.routerAs(env.member.ID), http.MethodPost, "/api/v1/organizations/geocorp/members", map[string]string{
		"username": "outsider",
		"role":     "member",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// The owner is not addable as a member of their own organization.
	w = orgRequest(t, env.routerAs(env.admin.ID), http.MethodPost, "/api/v1/organizations/geocorp/members", map[string]string{
		"username": "owner",
		"role":     "member",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = orgRequest(t, env.routerAs(env.owner.ID), http.MethodGet, "/api/v1/organizations/geocorp/members", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Members []map[string]interface{} `json:"members"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Members, 2)

	// Removal.
	w = orgRequest(t, env.routerAs(env.owner.ID), http.MethodDelete, "/api/v1/organizations/geocorp/members/plain-member", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = orgRequest(t, env.routerAs(env.owner.ID), http.MethodDelete, "/api/v1/organizations/geocorp/members/plain-member", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
