package repository

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DGEmiljoe/qfieldcloud/internal/database"
	"github.com/DGEmiljoe/qfieldcloud/internal/models"
	"github.com/DGEmiljoe/qfieldcloud/internal/permissions"
	"github.com/DGEmiljoe/qfieldcloud/internal/utils"
)

// GormProjectRepository is a GORM implementation of ProjectRepository.
//
// Visibility is computed in a single pass: one SELECT over projects with
// left joins against the organization, membership and collaborator tables,
// deriving the effective role and its origin with CASE expressions whose
// branch order matches the resolver precedence (owner, organization owner,
// organization admin, collaborator, public).
type GormProjectRepository struct {
	db       *gorm.DB
	orgRoles permissions.OrgRoleMapping
}

// NewProjectRepository creates a ProjectRepository using the default
// organization role mapping.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return NewProjectRepositoryWithMapping(db, permissions.DefaultOrgRoleMapping)
}

// NewProjectRepositoryWithMapping creates a ProjectRepository with a
// custom organization-role to project-role mapping.
func NewProjectRepositoryWithMapping(db *gorm.DB, mapping permissions.OrgRoleMapping) ProjectRepository {
	return &GormProjectRepository{db: db, orgRoles: mapping}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete removes the project and its collaborator grants atomically.
// Stored files are purged by the service layer before this runs.
func (r *GormProjectRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectCollaborator{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, "id = ?", id).Error
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uuid.UUID, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, "projects.id = ?", id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// FindByOwnerAndName finds a project by its unique (owner, name) pair
func (r *GormProjectRepository) FindByOwnerAndName(ownerID uint64, name string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("owner_id = ? AND name = ?", ownerID, name).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// visibilityParts builds the shared pieces of the visibility query. The
// CASE branches are emitted in resolver precedence order; the organization
// membership branches come from the configured role mapping.
func (r *GormProjectRepository) visibilityParts(actorID uint64) (roleCase, originCase, granted, joins string, args map[string]interface{}) {
	args = map[string]interface{}{
		"actor":       actorID,
		"admin_role":  models.RoleAdmin.String(),
		"reader_role": models.RoleReader.String(),
	}

	roleWhens := []string{
		"WHEN projects.owner_id = @actor THEN @admin_role",
		"WHEN owner_org.owner_id = @actor THEN @admin_role",
	}
	originWhens := []string{
		fmt.Sprintf("WHEN projects.owner_id = @actor THEN '%s'", models.RoleOriginProjectOwner),
		fmt.Sprintf("WHEN owner_org.owner_id = @actor THEN '%s'", models.RoleOriginOrganizationOwner),
	}
	grantedConds := []string{
		"projects.owner_id = @actor",
		"owner_org.owner_id = @actor",
	}

	orgRoles := make([]models.OrganizationRole, 0, len(r.orgRoles))
	for role := range r.orgRoles {
		orgRoles = append(orgRoles, role)
	}
	sort.Slice(orgRoles, func(i, j int) bool { return orgRoles[i] < orgRoles[j] })

	for i, orgRole := range orgRoles {
		cond := fmt.Sprintf("org_member.role = @org_role_%d", i)
		args[fmt.Sprintf("org_role_%d", i)] = string(orgRole)
		args[fmt.Sprintf("org_project_role_%d", i)] = r.orgRoles[orgRole].String()

		roleWhens = append(roleWhens, fmt.Sprintf("WHEN %s THEN @org_project_role_%d", cond, i))
		originWhens = append(originWhens, fmt.Sprintf("WHEN %s THEN '%s'", cond, models.RoleOriginOrganizationAdmin))
		grantedConds = append(grantedConds, cond)
	}

	roleWhens = append(roleWhens,
		"WHEN collab.collaborator_id IS NOT NULL THEN collab.role",
		"WHEN projects.is_public THEN @reader_role",
	)
	originWhens = append(originWhens,
		fmt.Sprintf("WHEN collab.collaborator_id IS NOT NULL THEN '%s'", models.RoleOriginCollaborator),
		fmt.Sprintf("WHEN projects.is_public THEN '%s'", models.RoleOriginPublic),
	)
	grantedConds = append(grantedConds, "collab.collaborator_id IS NOT NULL")

	roleCase = "CASE " + strings.Join(roleWhens, " ") + " END"
	originCase = "CASE " + strings.Join(originWhens, " ") + " END"
	granted = "(" + strings.Join(grantedConds, " OR ") + ")"
	joins = strings.Join([]string{
		"JOIN users owner_user ON owner_user.id = projects.owner_id",
		"LEFT JOIN organizations owner_org ON owner_org.user_id = projects.owner_id",
		"LEFT JOIN organization_members org_member ON org_member.organization_id = projects.owner_id AND org_member.member_id = @actor",
		"LEFT JOIN project_collaborators collab ON collab.project_id = projects.id AND collab.collaborator_id = @actor",
	}, " ")

	return roleCase, originCase, granted, joins, args
}

// FindVisible finds a project as seen by the given user. A project the
// user holds no role on is reported as not found, indistinguishable from
// a project that does not exist.
func (r *GormProjectRepository) FindVisible(actorID uint64, id uuid.UUID) (*ProjectWithRole, error) {
	roleCase, originCase, granted, joins, args := r.visibilityParts(actorID)
	args["project_id"] = id

	sql := fmt.Sprintf(
		"SELECT projects.*, owner_user.username AS owner_username, %s AS user_role, %s AS user_role_origin "+
			"FROM projects %s "+
			"WHERE projects.deleted_at IS NULL AND projects.id = @project_id AND (%s OR projects.is_public)",
		roleCase, originCase, joins, granted,
	)

	var row ProjectWithRole
	result := r.db.Raw(sql, args).Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return &row, nil
}

// ListVisible lists projects visible to the user, annotated with role and
// origin, in one query.
func (r *GormProjectRepository) ListVisible(actorID uint64, filter VisibleProjectsFilter) ([]ProjectWithRole, int64, error) {
	roleCase, originCase, granted, joins, args := r.visibilityParts(actorID)

	var visible string
	switch {
	case filter.OnlyPublic:
		visible = "projects.is_public"
	case filter.IncludePublic:
		visible = fmt.Sprintf("(%s OR projects.is_public)", granted)
	default:
		visible = granted
	}

	where := "projects.deleted_at IS NULL AND " + visible

	var total int64
	countSQL := fmt.Sprintf("SELECT COUNT(1) FROM projects %s WHERE %s", joins, where)
	if err := r.db.Raw(countSQL, args).Scan(&total).Error; err != nil {
		return nil, 0, err
	}

	sql := fmt.Sprintf(
		"SELECT projects.*, owner_user.username AS owner_username, %s AS user_role, %s AS user_role_origin "+
			"FROM projects %s WHERE %s ORDER BY owner_user.username, projects.name",
		roleCase, originCase, joins, where,
	)

	if filter.Page > 0 && filter.PageSize > 0 {
		sql += " LIMIT @limit OFFSET @offset"
		args["limit"] = filter.PageSize
		args["offset"] = (filter.Page - 1) * filter.PageSize
	}

	var rows []ProjectWithRole
	if err := r.db.Raw(sql, args).Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// AddCollaborator creates a collaborator grant. The composite primary key
// makes concurrent duplicate grants fail instead of duplicating rows.
func (r *GormProjectRepository) AddCollaborator(collaborator *models.ProjectCollaborator) error {
	return r.db.Create(collaborator).Error
}

// UpdateCollaborator updates an existing grant's role
func (r *GormProjectRepository) UpdateCollaborator(collaborator *models.ProjectCollaborator) error {
	return r.db.Model(&models.ProjectCollaborator{}).
		Where("project_id = ? AND collaborator_id = ?", collaborator.ProjectID, collaborator.CollaboratorID).
		Update("role", collaborator.Role).Error
}

// RemoveCollaborator deletes a grant
func (r *GormProjectRepository) RemoveCollaborator(projectID uuid.UUID, collaboratorID uint64) error {
	return r.db.Where("project_id = ? AND collaborator_id = ?", projectID, collaboratorID).
		Delete(&models.ProjectCollaborator{}).Error
}

// FindCollaborator finds a specific grant
func (r *GormProjectRepository) FindCollaborator(projectID uuid.UUID, collaboratorID uint64) (*models.ProjectCollaborator, error) {
	var collaborator models.ProjectCollaborator
	if err := r.db.Where("project_id = ? AND collaborator_id = ?", projectID, collaboratorID).
		First(&collaborator).Error; err != nil {
		return nil, err
	}
	return &collaborator, nil
}

// ListCollaborators lists grants on a project, paginated
func (r *GormProjectRepository) ListCollaborators(projectID uuid.UUID, params utils.PaginationParams) ([]models.ProjectCollaborator, int64, error) {
	query := r.db.Model(&models.ProjectCollaborator{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var collaborators []models.ProjectCollaborator
	if err := query.
		Preload("Collaborator").
		Order("created_at").
		Scopes(database.Paginate(params)).
		Find(&collaborators).Error; err != nil {
		return nil, 0, err
	}
	return collaborators, total, nil
}
