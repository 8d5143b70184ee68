package services

import (
	"testing"

	"github.com/collabhub/backend/internal/access"
	"github.com/collabhub/backend/internal/audit"
	"github.com/collabhub/backend/internal/constants"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/repository"
	"github.com/collabhub/backend/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type projectTestEnv struct {
	db      *gorm.DB
	svc     *ProjectService
	authSvc *AuthService
}

func setupProjectTestEnv(t *testing.T) projectTestEnv {
	t.Helper()

	db := setupTestDB(t)
	projectRepo := repository.NewProjectRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditor := audit.NewRecorder(repository.NewAuditLogRepository(db), zap.NewNop())
	resolver := access.NewResolver(projectRepo)

	return projectTestEnv{
		db:      db,
		svc:     NewProjectService(projectRepo, userRepo, resolver, auditor),
		authSvc: newTestAuthService(t, db),
	}
}

func (e projectTestEnv) registerUser(t *testing.T, email, username string) *models.User {
	t.Helper()
	user, _, err := e.authSvc.Register(RegisterInput{
		Email:    email,
		Username: username,
		Password: "Str0ng!pass",
	})
	require.NoError(t, err)
	return user
}

func defaultPagination() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}
}

func TestCreateProject_DuplicateKeyFails(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "a@x.com", "alice")

	_, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "First"})
	require.NoError(t, err)

	_, err = env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "Second"})
	require.ErrorIs(t, err, ErrProjectKeyTaken)

	// Keys are normalized to uppercase before the uniqueness check.
	_, err = env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "proj", Name: "Third"})
	require.ErrorIs(t, err, ErrProjectKeyTaken)
}

func TestProjectMemberLifecycle(t *testing.T) {
	env := setupProjectTestEnv(t)
	userA := env.registerUser(t, "a@x.com", "alice")
	userB := env.registerUser(t, "b@x.com", "bob")

	project, err := env.svc.CreateProject(userA.ID, CreateProjectInput{Key: "PROJ", Name: "Private"})
	require.NoError(t, err)

	// A adds B as member.
	_, err = env.svc.AddMember(project.ID, userA.ID, userB.ID, models.RoleMember)
	require.NoError(t, err)

	// B can edit the description.
	desc := "updated by bob"
	updated, err := env.svc.UpdateProject(project.ID, userB.ID, UpdateProjectInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, desc, updated.Description)

	// B cannot delete.
	err = env.svc.DeleteProject(project.ID, userB.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// A removes B; B can no longer even see the private project.
	require.NoError(t, env.svc.RemoveMember(project.ID, userA.ID, userB.ID))

	_, _, err = env.svc.GetProject(project.ID, userB.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestAddMember_RejectsOwnerRole(t *testing.T) {
	env := setupProjectTestEnv(t)
	userA := env.registerUser(t, "a@x.com", "alice")
	userB := env.registerUser(t, "b@x.com", "bob")

	project, err := env.svc.CreateProject(userA.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)

	_, err = env.svc.AddMember(project.ID, userA.ID, userB.ID, models.RoleOwner)
	require.ErrorIs(t, err, ErrInvalidMemberRole)

	_, err = env.svc.AddMember(project.ID, userA.ID, userB.ID, models.ProjectRole("root"))
	require.ErrorIs(t, err, ErrInvalidMemberRole)
}

func TestAddMember_DuplicateFails(t *testing.T) {
	env := setupProjectTestEnv(t)
	userA := env.registerUser(t, "a@x.com", "alice")
	userB := env.registerUser(t, "b@x.com", "bob")

	project, err := env.svc.CreateProject(userA.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)

	_, err = env.svc.AddMember(project.ID, userA.ID, userB.ID, models.RoleViewer)
	require.NoError(t, err)

	_, err = env.svc.AddMember(project.ID, userA.ID, userB.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrAlreadyMember)

	// The owner is not addable as a member either.
	_, err = env.svc.AddMember(project.ID, userA.ID, userA.ID, models.RoleAdmin)
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestMemberManagement_PermissionBoundaries(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "o@x.com", "owner")
	admin := env.registerUser(t, "ad@x.com", "admin")
	member := env.registerUser(t, "m@x.com", "member")
	viewer := env.registerUser(t, "v@x.com", "viewer")
	outsider := env.registerUser(t, "out@x.com", "outsider")

	project, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)

	_, err = env.svc.AddMember(project.ID, owner.ID, admin.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = env.svc.AddMember(project.ID, owner.ID, member.ID, models.RoleMember)
	require.NoError(t, err)
	_, err = env.svc.AddMember(project.ID, owner.ID, viewer.ID, models.RoleViewer)
	require.NoError(t, err)

	// Admin can manage members but not delete the project.
	_, err = env.svc.UpdateMemberRole(project.ID, admin.ID, member.ID, models.RoleViewer)
	require.NoError(t, err)
	err = env.svc.DeleteProject(project.ID, admin.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// Member can edit but not manage members.
	_, err = env.svc.UpdateMemberRole(project.ID, member.ID, viewer.ID, models.RoleMember)
	require.ErrorIs(t, err, ErrPermissionDenied)

	// Viewer can view but not edit.
	_, _, err = env.svc.GetProject(project.ID, viewer.ID)
	require.NoError(t, err)
	name := "renamed"
	_, err = env.svc.UpdateProject(project.ID, viewer.ID, UpdateProjectInput{Name: &name})
	require.ErrorIs(t, err, ErrPermissionDenied)

	// An outsider gets not-found, never permission-denied, so the
	// private project's existence is not confirmed.
	_, err = env.svc.UpdateProject(project.ID, outsider.ID, UpdateProjectInput{Name: &name})
	require.ErrorIs(t, err, ErrProjectNotFound)
	err = env.svc.DeleteProject(project.ID, outsider.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestRemoveMember_SelfRemovalRequiresManagePermission(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "o@x.com", "owner")
	member := env.registerUser(t, "m@x.com", "member")

	project, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)

	_, err = env.svc.AddMember(project.ID, owner.ID, member.ID, models.RoleMember)
	require.NoError(t, err)

	// A plain member cannot remove anyone, themselves included.
	err = env.svc.RemoveMember(project.ID, member.ID, member.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListMembers_RequiresViewAccess(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "o@x.com", "owner")
	outsider := env.registerUser(t, "out@x.com", "outsider")
	member := env.registerUser(t, "m@x.com", "member")

	project, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)
	_, err = env.svc.AddMember(project.ID, owner.ID, member.ID, models.RoleMember)
	require.NoError(t, err)

	members, total, err := env.svc.ListMembers(project.ID, owner.ID, defaultPagination())
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, members, 1)
	require.Equal(t, member.ID, members[0].UserID)

	_, _, err = env.svc.ListMembers(project.ID, outsider.ID, defaultPagination())
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestGetProject_PublicVisibleToAnyone(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "o@x.com", "owner")

	project, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PUB", Name: "Public", IsPublic: true})
	require.NoError(t, err)

	// Unauthenticated callers resolve as implicit viewers.
	got, acc, err := env.svc.GetProject(project.ID, 0)
	require.NoError(t, err)
	require.Equal(t, project.ID, got.ID)
	require.Equal(t, models.RoleViewer, acc.Role)
}

func TestDeleteProject_RemovesMemberships(t *testing.T) {
	env := setupProjectTestEnv(t)
	owner := env.registerUser(t, "o@x.com", "owner")
	member := env.registerUser(t, "m@x.com", "member")

	project, err := env.svc.CreateProject(owner.ID, CreateProjectInput{Key: "PROJ", Name: "P"})
	require.NoError(t, err)
	_, err = env.svc.AddMember(project.ID, owner.ID, member.ID, models.RoleMember)
	require.NoError(t, err)

	require.NoError(t, env.svc.DeleteProject(project.ID, owner.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count).Error)
	require.Zero(t, count)

	_, _, err = env.svc.GetProject(project.ID, owner.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
}
