package access

import (
	"errors"
	"fmt"

	"github.com/collabhub/backend/internal/models"
	"github.com/collabhub/backend/internal/repository"
	"gorm.io/gorm"
)

// Action is a permission-gated operation on a project.
type Action string

const (
	ActionView          Action = "view"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageMembers Action = "manage_members"
)

// permissionMatrix is the fixed role/action table. Roles absent from
// the map (including the zero value) have no permissions.
var permissionMatrix = map[models.ProjectRole]map[Action]bool{
	models.RoleOwner: {
		ActionView:          true,
		ActionEdit:          true,
		ActionDelete:        true,
		ActionManageMembers: true,
	},
	models.RoleAdmin: {
		ActionView:          true,
		ActionEdit:          true,
		ActionManageMembers: true,
	},
	models.RoleMember: {
		ActionView: true,
		ActionEdit: true,
	},
	models.RoleViewer: {
		ActionView: true,
	},
}

// HasPermission reports whether role may perform action per the fixed
// matrix. An unknown role never has permission.
func HasPermission(role models.ProjectRole, action Action) bool {
	perms, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return perms[action]
}

// Access describes a caller's relationship to a project at query time.
// Role is only meaningful when HasAccess is true.
type Access struct {
	HasAccess bool
	Role      models.ProjectRole
	IsOwner   bool
}

// Resolver determines project access for a subject. It is read-only
// and resolves fresh on every call; roles are never cached across
// requests.
type Resolver struct {
	projectRepo repository.ProjectRepository
}

// NewResolver creates a Resolver backed by the given project repository.
func NewResolver(projectRepo repository.ProjectRepository) *Resolver {
	return &Resolver{projectRepo: projectRepo}
}

// Resolve determines the caller's role for a project. Precedence:
// owner, then stored membership row, then implicit viewer on a public
// project, then no access. A userID of 0 means an unauthenticated
// caller. A missing project resolves to no access rather than an error
// so callers cannot distinguish absent from denied.
func (r *Resolver) Resolve(projectID, userID uint64) (Access, error) {
	project, member, err := r.projectRepo.FindWithMembership(projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Access{}, nil
		}
		return Access{}, fmt.Errorf("failed to resolve project access: %w", err)
	}

	if userID != 0 && project.OwnerID == userID {
		return Access{HasAccess: true, Role: models.RoleOwner, IsOwner: true}, nil
	}

	if member != nil {
		return Access{HasAccess: true, Role: member.Role}, nil
	}

	if project.IsPublic {
		return Access{HasAccess: true, Role: models.RoleViewer}, nil
	}

	return Access{}, nil
}

// Can resolves access and checks a single action in one step. It is
// the guard used in front of every project mutation.
func (r *Resolver) Can(projectID, userID uint64, action Action) (Access, bool, error) {
	acc, err := r.Resolve(projectID, userID)
	if err != nil {
		return Access{}, false, err
	}
	if !acc.HasAccess {
		return acc, false, nil
	}
	return acc, HasPermission(acc.Role, action), nil
}
