package repository

import (
	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindWithMembership loads a project together with the membership
	// row for userID, if one exists. Returns gorm.ErrRecordNotFound
	// when the project does not exist; a missing membership is not an
	// error and yields a nil member.
	FindWithMembership(projectID, userID uint64) (*models.Project, *models.ProjectMember, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and its memberships
	Delete(id uint64) error

	// ListForUser lists projects the user owns or is a member of
	ListForUser(userID uint64) ([]models.Project, error)

	// AddMember adds a member to a project
	AddMember(member *models.ProjectMember) error

	// UpdateMember updates a member's role
	UpdateMember(member *models.ProjectMember) error

	// RemoveMember removes a member from a project
	RemoveMember(projectID, userID uint64) error

	// FindMember finds a specific project member
	FindMember(projectID, userID uint64) (*models.ProjectMember, error)

	// ListMembers lists members of a project with pagination
	ListMembers(projectID uint64, params utils.PaginationParams) ([]models.ProjectMember, int64, error)
}

// RefreshTokenRepository defines the interface for refresh token data access
type RefreshTokenRepository interface {
	// Create stores a new refresh token
	Create(token *models.RefreshToken) error

	// Find looks up a refresh token by its opaque value
	Find(token string) (*models.RefreshToken, error)

	// Rotate atomically consumes the old token and stores its
	// replacement. Returns gorm.ErrRecordNotFound if the old token was
	// already consumed or never existed; at most one concurrent caller
	// can succeed for a given token.
	Rotate(oldToken string, replacement *models.RefreshToken) error

	// Delete removes the token scoped to its owner. Deleting a token
	// that does not exist or belongs to another user is a no-op.
	Delete(token string, userID uint64) error

	// DeleteByUser removes every refresh token belonging to a user
	DeleteByUser(userID uint64) error
}

// AuditLogRepository defines the interface for audit log writes
type AuditLogRepository interface {
	// Create appends an audit record
	Create(entry *models.AuditLog) error
}
