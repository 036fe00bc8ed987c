package services

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/storage"
)

type projectServiceTestEnv struct {
	db      *gorm.DB
	fs      afero.Fs
	files   *storage.FileStorage
	service *ProjectService

	alice, bob, carol, dave, erin models.User
	geocorp                       models.User
}

func setupProjectServiceTestEnv(t *testing.T) projectServiceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Project{},
		&models.ProjectCollaborator{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	fs := afero.NewMemMapFs()
	files := storage.NewFileStorage(fs, "/storage")

	env := projectServiceTestEnv{
		db:    db,
		fs:    fs,
		files: files,
		service: NewProjectService(
			repository.NewProjectRepository(db),
			repository.NewUserRepository(db),
			repository.NewOrganizationRepository(db),
			files,
		),
	}

	env.alice = models.User{Username: "alice", UserType: models.TypeUser}
	env.bob = models.User{Username: "bob", UserType: models.TypeUser}
	env.carol = models.User{Username: "carol", UserType: models.TypeUser}
	env.dave = models.User{Username: "dave", UserType: models.TypeUser}
	env.erin = models.User{Username: "erin", UserType: models.TypeUser}
	env.geocorp = models.User{Username: "geocorp", UserType: models.TypeOrganization}
	for _, u := range []*models.User{&env.alice, &env.bob, &env.carol, &env.dave, &env.erin, &env.geocorp} {
		require.NoError(t, db.Create(u).Error)
	}

	require.NoError(t, db.Create(&models.Organization{UserID: env.geocorp.ID, OwnerID: env.carol.ID}).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: env.geocorp.ID,
		MemberID:       env.dave.ID,
		Role:           models.OrganizationRoleAdmin,
	}).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: env.geocorp.ID,
		MemberID:       env.erin.ID,
		Role:           models.OrganizationRoleMember,
	}).Error)

	return env
}

func TestCreateProjectForSelf(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	project, err := env.service.CreateProject(CreateProjectInput{
		ActorID:     env.alice.ID,
		Name:        "field-survey",
		Description: "2026 field survey",
	})
	require.NoError(t, err)
	require.Equal(t, env.alice.ID, project.OwnerID)
	require.Equal(t, "alice", project.Owner.Username)
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", project.ID.String())
}

func TestCreateProjectInvalidName(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	for _, name := range []string{"", "has space", "slash/name", "héllo"} {
		_, err := env.service.CreateProject(CreateProjectInput{
			ActorID: env.alice.ID,
			Name:    name,
		})
		require.ErrorIs(t, err, ErrProjectNameInvalid, "name %q", name)
	}
}

func TestCreateProjectNameTakenPerOwner(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	_, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	_, err = env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.ErrorIs(t, err, ErrProjectNameTaken)

	// The same name under a different owner is fine.
	_, err = env.service.CreateProject(CreateProjectInput{ActorID: env.bob.ID, Name: "survey"})
	require.NoError(t, err)
}

func TestCreateProjectForOrganization(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	// Organization owner may create under the organization.
	project, err := env.service.CreateProject(CreateProjectInput{
		ActorID:       env.carol.ID,
		OwnerUsername: "geocorp",
		Name:          "owned-by-org",
	})
	require.NoError(t, err)
	require.Equal(t, env.geocorp.ID, project.OwnerID)

	// So may an admin member.
	_, err = env.service.CreateProject(CreateProjectInput{
		ActorID:       env.dave.ID,
		OwnerUsername: "geocorp",
		Name:          "by-admin",
	})
	require.NoError(t, err)

	// A plain member may not.
	_, err = env.service.CreateProject(CreateProjectInput{
		ActorID:       env.erin.ID,
		OwnerUsername: "geocorp",
		Name:          "by-member",
	})
	require.ErrorIs(t, err, ErrCreateNotAllowed)

	// Neither may an unrelated user, nor anyone under another person.
	_, err = env.service.CreateProject(CreateProjectInput{
		ActorID:       env.bob.ID,
		OwnerUsername: "geocorp",
		Name:          "by-stranger",
	})
	require.ErrorIs(t, err, ErrCreateNotAllowed)

	_, err = env.service.CreateProject(CreateProjectInput{
		ActorID:       env.bob.ID,
		OwnerUsername: "alice",
		Name:          "impersonated",
	})
	require.ErrorIs(t, err, ErrCreateNotAllowed)
}

func TestCreateProjectUnknownOwner(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	_, err := env.service.CreateProject(CreateProjectInput{
		ActorID:       env.alice.ID,
		OwnerUsername: "nobody",
		Name:          "orphan",
	})
	require.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestUpdateProjectKeepsOwner(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	newName := "renamed-survey"
	isPublic := true
	updated, err := env.service.UpdateProject(project.ID, UpdateProjectInput{
		Name:     &newName,
		IsPublic: &isPublic,
	})
	require.NoError(t, err)
	require.Equal(t, "renamed-survey", updated.Name)
	require.True(t, updated.IsPublic)
	require.Equal(t, env.alice.ID, updated.OwnerID)
}

func TestDeleteProjectPurgesFiles(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	_, err = env.files.Save(project.ID, "project.qgs", strings.NewReader("data"))
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteProject(project.ID))

	listed, err := env.files.List(project.ID)
	require.NoError(t, err)
	require.Empty(t, listed)

	// A second delete reports not found instead of failing halfway.
	require.ErrorIs(t, env.service.DeleteProject(project.ID), ErrProjectNotFound)
}

func TestDeleteProjectAbortsWhenPurgeFails(t *testing.T) {
	env := setupProjectServiceTestEnv(t)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	brokenService := NewProjectService(
		repository.NewProjectRepository(env.db),
		repository.NewUserRepository(env.db),
		repository.NewOrganizationRepository(env.db),
		storage.NewFileStorage(afero.NewReadOnlyFs(env.fs), "/storage"),
	)

	require.Error(t, brokenService.DeleteProject(project.ID))

	// The record survives a failed purge.
	_, err = env.service.GetVisibleProject(env.alice.ID, project.ID)
	require.NoError(t, err)
}
