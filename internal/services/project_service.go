package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/collabhub/backend/internal/access"
	"github.com/collabhub/backend/internal/audit"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/repository"
	"github.com/collabhub/backend/internal/utils"
	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound is returned both when a project does not exist
	// and when the caller may not see it, so existence is never leaked.
	ErrProjectNotFound    = errors.New("project not found")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrProjectKeyTaken    = errors.New("project key already in use")
	ErrInvalidProjectName = errors.New("project name cannot be empty")
	ErrInvalidProjectKey  = errors.New("project key cannot be empty")
	ErrInvalidMemberRole  = errors.New("role must be admin, member, or viewer")
	ErrAlreadyMember      = errors.New("user is already a member of this project")
	ErrMemberNotFound     = errors.New("project member not found")
)

// ProjectService provides business logic for project operations. Every
// mutation runs the same guard: resolve the caller's access, check the
// action against the permission matrix, then proceed.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	userRepo    repository.UserRepository
	resolver    *access.Resolver
	auditor     *audit.Recorder
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	userRepo repository.UserRepository,
	resolver *access.Resolver,
	auditor *audit.Recorder,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		auditor:     auditor,
	}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Key         string
	Name        string
	Description string
	IsPublic    bool
}

// CreateProject creates a new project owned by the caller.
func (s *ProjectService) CreateProject(ownerID uint64, input CreateProjectInput) (*models.Project, error) {
	key := strings.ToUpper(strings.TrimSpace(input.Key))
	if key == "" {
		return nil, ErrInvalidProjectKey
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidProjectName
	}

	project := &models.Project{
		Key:         key,
		Name:        input.Name,
		Description: input.Description,
		IsPublic:    input.IsPublic,
		OwnerID:     ownerID,
	}

	if err := s.projectRepo.Create(project); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProjectKeyTaken
		}
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.auditor.Record(models.AuditProjectCreated, ownerID, map[string]interface{}{
		"project_id": project.ID,
		"key":        project.Key,
	})

	return project, nil
}

// GetProject returns a project if the caller may view it.
func (s *ProjectService) GetProject(projectID, userID uint64) (*models.Project, access.Access, error) {
	acc, err := s.resolver.Resolve(projectID, userID)
	if err != nil {
		return nil, access.Access{}, err
	}
	if !acc.HasAccess {
		return nil, access.Access{}, ErrProjectNotFound
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.Access{}, ErrProjectNotFound
		}
		return nil, access.Access{}, fmt.Errorf("failed to find project: %w", err)
	}

	return project, acc, nil
}

// ListProjects returns projects the user owns or belongs to.
func (s *ProjectService) ListProjects(userID uint64) ([]models.Project, error) {
	projects, err := s.projectRepo.ListForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// UpdateProjectInput holds the mutable project fields.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
	IsArchived  *bool
}

// UpdateProject applies changes to a project for callers with edit
// permission.
func (s *ProjectService) UpdateProject(projectID, userID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.guard(projectID, userID, access.ActionEdit)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidProjectName
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.IsPublic != nil {
		project.IsPublic = *input.IsPublic
	}
	if input.IsArchived != nil {
		project.IsArchived = *input.IsArchived
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.auditor.Record(models.AuditProjectUpdated, userID, map[string]interface{}{
		"project_id": project.ID,
	})

	return project, nil
}

// DeleteProject removes a project. Only the owner holds the delete
// permission.
func (s *ProjectService) DeleteProject(projectID, userID uint64) error {
	project, err := s.guard(projectID, userID, access.ActionDelete)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.auditor.Record(models.AuditProjectDeleted, userID, map[string]interface{}{
		"project_id": project.ID,
		"key":        project.Key,
	})

	return nil
}

// AddMember adds a user to the project with the given role. Ownership
// is not a membership row, so the owner role is rejected here.
func (s *ProjectService) AddMember(projectID, actorID, targetID uint64, role models.ProjectRole) (*models.ProjectMember, error) {
	if !models.IsMembershipRole(role) {
		return nil, ErrInvalidMemberRole
	}

	project, err := s.guard(projectID, actorID, access.ActionManageMembers)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if project.OwnerID == targetID {
		return nil, ErrAlreadyMember
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    targetID,
		Role:      role,
		JoinedAt:  time.Now(),
	}

	if err := s.projectRepo.AddMember(member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	s.auditor.Record(models.AuditMemberAdded, actorID, map[string]interface{}{
		"project_id": project.ID,
		"user_id":    targetID,
		"role":       string(role),
	})

	return member, nil
}

// UpdateMemberRole changes an existing member's role.
func (s *ProjectService) UpdateMemberRole(projectID, actorID, targetID uint64, role models.ProjectRole) (*models.ProjectMember, error) {
	if !models.IsMembershipRole(role) {
		return nil, ErrInvalidMemberRole
	}

	project, err := s.guard(projectID, actorID, access.ActionManageMembers)
	if err != nil {
		return nil, err
	}

	member, err := s.projectRepo.FindMember(project.ID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to find member: %w", err)
	}

	member.Role = role
	if err := s.projectRepo.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	s.auditor.Record(models.AuditMemberUpdated, actorID, map[string]interface{}{
		"project_id": project.ID,
		"user_id":    targetID,
		"role":       string(role),
	})

	return member, nil
}

// RemoveMember removes a member from the project. Self-removal goes
// through the same manage_members check as any other removal.
func (s *ProjectService) RemoveMember(projectID, actorID, targetID uint64) error {
	project, err := s.guard(projectID, actorID, access.ActionManageMembers)
	if err != nil {
		return err
	}

	if _, err := s.projectRepo.FindMember(project.ID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find member: %w", err)
	}

	if err := s.projectRepo.RemoveMember(project.ID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	s.auditor.Record(models.AuditMemberRemoved, actorID, map[string]interface{}{
		"project_id": project.ID,
		"user_id":    targetID,
	})

	return nil
}

// ListMembers returns the project's members for callers with view
// access.
func (s *ProjectService) ListMembers(projectID, userID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error) {
	acc, err := s.resolver.Resolve(projectID, userID)
	if err != nil {
		return nil, 0, err
	}
	if !acc.HasAccess {
		return nil, 0, ErrProjectNotFound
	}

	members, total, err := s.projectRepo.ListMembers(projectID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}
	return members, total, nil
}

// guard resolves access and checks one action. A caller without any
// access gets ErrProjectNotFound so private projects stay invisible; a
// caller with access but without the permission gets
// ErrPermissionDenied.
func (s *ProjectService) guard(projectID, userID uint64, action access.Action) (*models.Project, error) {
	acc, allowed, err := s.resolver.Can(projectID, userID, action)
	if err != nil {
		return nil, err
	}
	if !acc.HasAccess {
		return nil, ErrProjectNotFound
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return project, nil
}
