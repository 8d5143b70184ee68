package repository

import (
	"errors"

	"github.com/collabhub/backend/internal/database"
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/utils"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindWithMembership loads a project and the caller's membership row in
// one round trip pair. The membership lookup is skipped for
// unauthenticated callers (userID 0).
func (r *GormProjectRepository) FindWithMembership(projectID, userID uint64) (*models.Project, *models.ProjectMember, error) {
	var project models.Project
	if err := r.db.First(&project, projectID).Error; err != nil {
		return nil, nil, err
	}

	if userID == 0 {
		return &project, nil, nil
	}

	var member models.ProjectMember
	err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &project, nil, nil
		}
		return nil, nil, err
	}

	return &project, &member, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete deletes a project and all of its memberships in a transaction
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		if err := tx.Delete(&models.Project{}, id).Error; err != nil {
			return err
		}

		return nil
	})
}

// ListForUser lists projects the user owns or belongs to
func (r *GormProjectRepository) ListForUser(userID uint64) ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Joins("LEFT JOIN project_members ON project_members.project_id = projects.id AND project_members.user_id = ?", userID).
		Where("projects.owner_id = ? OR project_members.user_id = ?", userID, userID).
		Distinct().
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(member *models.ProjectMember) error {
	return r.db.Create(member).Error
}

// UpdateMember updates a member's role
func (r *GormProjectRepository) UpdateMember(member *models.ProjectMember) error {
	return r.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", member.ProjectID, member.UserID).
		Update("role", member.Role).Error
}

// RemoveMember removes a member from a project
func (r *GormProjectRepository) RemoveMember(projectID, userID uint64) error {
	return r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectMember{}).Error
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers lists members of a project with pagination
func (r *GormProjectRepository) ListMembers(projectID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error) {
	query := r.db.Model(&models.ProjectMember{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []models.ProjectMember
	if err := query.Preload("User").
		Scopes(database.Paginate(params)).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}
