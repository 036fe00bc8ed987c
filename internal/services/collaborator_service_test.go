package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/repository"
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

func setupCollaboratorService(t *testing.T, env projectServiceTestEnv) *CollaboratorService {
	t.Helper()
	return NewCollaboratorService(
		repository.NewProjectRepository(env.db),
		repository.NewUserRepository(env.db),
		repository.NewOrganizationRepository(env.db),
	)
}

func TestAddCollaborator(t *testing.T) {
	env := setupProjectServiceTestEnv(t)
	collaborators := setupCollaboratorService(t, env)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	grant, err := collaborators.AddCollaborator(project.ID, "bob", models.RoleReporter)
	require.NoError(t, err)
	require.Equal(t, models.RoleReporter, grant.Role)

	// Duplicate grants are rejected.
	_, err = collaborators.AddCollaborator(project.ID, "bob", models.RoleEditor)
	require.ErrorIs(t, err, ErrCollaboratorExists)

	_, err = collaborators.AddCollaborator(project.ID, "nobody", models.RoleReader)
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = collaborators.AddCollaborator(project.ID, "carol", models.ProjectRole(42))
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestAddCollaboratorRejectsStrongerOrigins(t *testing.T) {
	env := setupProjectServiceTestEnv(t)
	collaborators := setupCollaboratorService(t, env)

	personal, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "personal"})
	require.NoError(t, err)
	orgProject, err := env.service.CreateProject(CreateProjectInput{
		ActorID:       env.carol.ID,
		OwnerUsername: "geocorp",
		Name:          "org-survey",
	})
	require.NoError(t, err)

	// The project owner already holds admin.
	_, err = collaborators.AddCollaborator(personal.ID, "alice", models.RoleReader)
	require.ErrorIs(t, err, ErrCollaboratorIsOwner)

	// The owning organization's owner already holds admin.
	_, err = collaborators.AddCollaborator(orgProject.ID, "carol", models.RoleReader)
	require.ErrorIs(t, err, ErrCollaboratorIsOrganizationOwner)

	// So does an admin member of the owning organization.
	_, err = collaborators.AddCollaborator(orgProject.ID, "dave", models.RoleReader)
	require.ErrorIs(t, err, ErrCollaboratorIsOrganizationAdmin)

	// A plain member holds nothing and can be granted a role.
	_, err = collaborators.AddCollaborator(orgProject.ID, "erin", models.RoleEditor)
	require.NoError(t, err)
}

func TestUpdateCollaborator(t *testing.T) {
	env := setupProjectServiceTestEnv(t)
	collaborators := setupCollaboratorService(t, env)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	_, err = collaborators.AddCollaborator(project.ID, "bob", models.RoleReader)
	require.NoError(t, err)

	grant, err := collaborators.UpdateCollaborator(project.ID, "bob", models.RoleManager)
	require.NoError(t, err)
	require.Equal(t, models.RoleManager, grant.Role)

	_, err = collaborators.UpdateCollaborator(project.ID, "carol", models.RoleReader)
	require.ErrorIs(t, err, ErrCollaboratorNotFound)
}

func TestRemoveCollaborator(t *testing.T) {
	env := setupProjectServiceTestEnv(t)
	collaborators := setupCollaboratorService(t, env)

	project, err := env.service.CreateProject(CreateProjectInput{ActorID: env.alice.ID, Name: "survey"})
	require.NoError(t, err)

	_, err = collaborators.AddCollaborator(project.ID, "bob", models.RoleEditor)
	require.NoError(t, err)

	require.NoError(t, collaborators.RemoveCollaborator(project.ID, "bob"))
	require.ErrorIs(t, collaborators.RemoveCollaborator(project.ID, "bob"), ErrCollaboratorNotFound)

	listed, total, err := collaborators.ListCollaborators(project.ID, utils.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, listed)
}
