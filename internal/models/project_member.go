package models

import "time"

type ProjectRole string

const (
	RoleOwner  ProjectRole = "owner"
	RoleAdmin  ProjectRole = "admin"
	RoleMember ProjectRole = "member"
	RoleViewer ProjectRole = "viewer"
)

// MembershipRoles are the roles that may be stored on a membership row.
// Ownership is derived from Project.OwnerID and is never stored here.
var MembershipRoles = []ProjectRole{RoleAdmin, RoleMember, RoleViewer}

// IsMembershipRole reports whether role can be assigned to a project member.
func IsMembershipRole(role ProjectRole) bool {
	for _, r := range MembershipRoles {
		if r == role {
			return true
		}
	}
	return false
}

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
